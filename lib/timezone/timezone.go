package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Asia/Novosibirsk")
	if err != nil {
		panic(err)
	}
}

// force the clock into the portal's timezone, the servers this runs on
// are not guaranteed to share it and snapshot timestamps are compared
// against portal-local reading dates
func Now() time.Time {
	return time.Now().In(Location)
}
