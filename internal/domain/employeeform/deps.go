package employeeform

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"hrconsole/internal/domain/dupcheck"
	"hrconsole/internal/domain/refdata"
	"hrconsole/internal/hrapi"
)

// Gateway is the slice of the HR API the form reads and writes through.
type Gateway interface {
	GetEmployee(ctx context.Context, employeeID string) (*hrapi.EmployeeRecord, error)
	SaveEmployee(ctx context.Context, employeeID string, payload hrapi.MultipartPayload) (hrapi.WriteResult, error)
}

type Recorder interface {
	DupCheck(failed bool)
	Submission(outcome string)
}

type noopRecorder struct{}

func (noopRecorder) DupCheck(bool)     {}
func (noopRecorder) Submission(string) {}

type Options struct {
	DupCheckDebounce      time.Duration
	DupCheckRatePerSecond int
	RemoteTimeout         time.Duration
	MaxUploadBytes        int64
}

// Deps are the collaborators of one form, already scoped to its session.
type Deps struct {
	Refs    *refdata.Resolver
	Gateway Gateway
	Checker dupcheck.Checker
	Metrics Recorder
	Options Options
}

func (d Deps) recorder() Recorder {
	if d.Metrics == nil {
		return noopRecorder{}
	}
	return d.Metrics
}

func (d Deps) limiter() *rate.Limiter {
	if d.Options.DupCheckRatePerSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(d.Options.DupCheckRatePerSecond), d.Options.DupCheckRatePerSecond)
}
