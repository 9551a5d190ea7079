package worker

import (
	"github.com/deskops/sla-service/internal/service"
)

// StartEventLogWorker registers SLA audit handlers.
func StartEventLogWorker(eventLog *service.EventLogService) {
	if eventLog == nil {
		return
	}
	eventLog.RegisterHandlers()
}
