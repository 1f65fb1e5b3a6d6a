package scheduler

import (
	"time"

	"github.com/ternarybob/gapscan/internal/common"
	"github.com/ternarybob/gapscan/internal/interfaces"
	"github.com/ternarybob/gapscan/internal/models"
)

// Job names for the standard recurring jobs.
const (
	JobAnnouncementScan = "announcement_scan"
	JobDataDownload     = "data_download"
	JobCSVImport        = "csv_import"
)

// RegisterStandardJobs wires the three recurring jobs. Each job only publishes
// its kickoff event; the subscribed handlers do the actual work, so a slow
// scan never holds up the scheduler.
func RegisterStandardJobs(s *Service, bus interfaces.EventBus, schedules common.SchedulesConfig) error {
	if err := s.RegisterJob(JobAnnouncementScan, schedules.Scan, func() error {
		return bus.Publish(interfaces.Event{
			Type:          interfaces.EventScanStarted,
			Source:        interfaces.SourceScheduled,
			CorrelationID: common.NewScanID(),
			Timestamp:     time.Now(),
			Payload:       models.ScanStarted{},
		})
	}); err != nil {
		return err
	}

	if err := s.RegisterJob(JobDataDownload, schedules.Download, func() error {
		return bus.Publish(interfaces.Event{
			Type:          interfaces.EventDownloadStarted,
			Source:        interfaces.SourceScheduled,
			CorrelationID: common.NewCorrelationID("download"),
			Timestamp:     time.Now(),
			Payload:       models.DownloadStarted{},
		})
	}); err != nil {
		return err
	}

	if err := s.RegisterJob(JobCSVImport, schedules.Import, func() error {
		return bus.Publish(interfaces.Event{
			Type:          interfaces.EventImportStarted,
			Source:        interfaces.SourceScheduled,
			CorrelationID: common.NewCorrelationID("import"),
			Timestamp:     time.Now(),
			Payload:       models.ImportStarted{},
		})
	}); err != nil {
		return err
	}

	return nil
}
