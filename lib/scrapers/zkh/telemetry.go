package zkh

import "zkhmon-backend/lib/telemetry"

var tracer = telemetry.Tracer("zkhmon.lib.scrapers.zkh")
