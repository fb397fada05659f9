package readingstore

const Schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	time INTEGER NOT NULL,
	data TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS snapshots_time ON snapshots (time);

CREATE TABLE IF NOT EXISTS readings (
	serial_key TEXT NOT NULL,
	time INTEGER NOT NULL,
	value INTEGER NOT NULL,
	PRIMARY KEY (serial_key, time)
);
`
