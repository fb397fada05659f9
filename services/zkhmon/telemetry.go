package zkhmon

import "zkhmon-backend/lib/telemetry"

var tracer = telemetry.Tracer("zkhmon.services.zkhmon")
