package usecase

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"dev.rubentxu.mr-harness/internal/adapters/store"
	"dev.rubentxu.mr-harness/internal/core/domain"
	"dev.rubentxu.mr-harness/internal/core/domain/run"
	"dev.rubentxu.mr-harness/internal/core/ports"
	"github.com/stretchr/testify/suite"
)

type HarnessTestSuite struct {
	suite.Suite
	launcher *fakeLauncher
	runs     *store.InMemoryRunStore
	out      *bytes.Buffer
	phases   []run.Phase
}

func TestHarnessSuite(t *testing.T) {
	suite.Run(t, new(HarnessTestSuite))
}

func (s *HarnessTestSuite) SetupTest() {
	s.launcher = newFakeLauncher()
	s.runs = store.NewInMemoryRunStore()
	s.out = &bytes.Buffer{}
	s.phases = nil
}

func (s *HarnessTestSuite) harness(cfg HarnessConfig) *Harness {
	return NewHarness(cfg, s.launcher, testLogger(s.T()), s.out,
		WithRunRepository(s.runs),
		WithObserver(ports.RunObserverFunc(func(e run.PhaseEvent) {
			s.phases = append(s.phases, e.To)
		})),
	)
}

var catDogInput = map[string]string{"story.txt": "the cat sat. the dog ran.\n"}

func (s *HarnessTestSuite) TestPassesWhenOutputMatches() {
	p := newProject(s.T(), sampleConfig, catDogInput, map[string]string{
		"output_0.txt": "the 2\ncat 1\nsat 1\n",
		"output_1.txt": "dog 1\nran 1\n",
	})
	s.launcher.onDriver = driverExitsAfter(s.launcher, 20*time.Millisecond, 0)

	res, err := s.harness(p.cfg).Run(context.Background())
	s.Require().NoError(err)
	s.Equal(run.Passed, res.Phase)
	s.True(res.Success)
	s.Empty(res.Failures)
	s.Equal(ExitPassed, res.ExitCode)
	s.Contains(s.out.String(), "MapReduce test completed successfully!")

	truth, err := os.ReadFile(p.cfg.TruthFile)
	s.Require().NoError(err)
	s.Equal("cat 1\ndog 1\nran 1\nsat 1\nthe 2\n", string(truth))

	workers := s.launcher.startedWorkers()
	s.Len(workers, 3)
	for _, w := range workers {
		s.True(w.wasTerminated(), "worker %s should be terminated at cleanup", w.name)
	}

	s.Equal([]run.Phase{run.LoadingConfig, run.StartingWorkers, run.RunningJob, run.ComputingTruth, run.Validating, run.Passed}, s.phases)

	saved, err := s.runs.Get(res.ID)
	s.Require().NoError(err)
	s.Equal(run.Passed, saved.Phase)
}

func (s *HarnessTestSuite) TestReportsSingleMismatch() {
	p := newProject(s.T(), sampleConfig, catDogInput, map[string]string{
		"output_0.txt": "the 2\ncat 2\nsat 1\n",
		"output_1.txt": "dog 1\nran 1\n",
	})
	s.launcher.onDriver = driverExitsAfter(s.launcher, 10*time.Millisecond, 0)

	res, err := s.harness(p.cfg).Run(context.Background())
	s.Require().NoError(err)
	s.Equal(run.Failed, res.Phase)
	s.Equal(ExitFailed, res.ExitCode)
	s.Equal([]domain.ValidationFailure{domain.MismatchFailure("cat", 1, 2)}, res.Failures)

	report, err := os.ReadFile(p.cfg.FailuresFile)
	s.Require().NoError(err)
	s.Contains(string(report), "Total Failures: 1\n\nFAIL: cat 2 Expected: 1\n")
	s.Contains(s.out.String(), "1 validation failures found:")
	s.Contains(s.out.String(), "MapReduce test completed with errors")
}

func (s *HarnessTestSuite) TestAbortsWithoutValidationWhenDriverFails() {
	p := newProject(s.T(), sampleConfig, catDogInput, nil)
	s.launcher.onDriver = driverExitsAfter(s.launcher, 10*time.Millisecond, 3)

	res, err := s.harness(p.cfg).Run(context.Background())
	s.Require().Error(err)
	s.ErrorIs(err, domain.ErrJobFailed)
	s.Equal(run.Aborted, res.Phase)
	s.Equal(3, res.ExitCode)

	_, statErr := os.Stat(p.cfg.TruthFile)
	s.True(os.IsNotExist(statErr), "truth file must not be generated after a failed job")
	for _, w := range s.launcher.startedWorkers() {
		s.True(w.wasTerminated())
	}
}

func (s *HarnessTestSuite) TestFaultInjectionLandsWhileJobRuns() {
	p := newProject(s.T(), sampleConfig, catDogInput, map[string]string{
		"part-0": "the 2\ncat 1\nsat 1\ndog 1\nran 1\n",
	})
	p.cfg.FaultTolerance = true
	p.cfg.KillDelay = 50 * time.Millisecond
	s.launcher.onDriver = driverExitsAfter(s.launcher, 300*time.Millisecond, 0)

	var completedAt time.Time
	h := s.harness(p.cfg)
	h.observers = append(h.observers, ports.RunObserverFunc(func(e run.PhaseEvent) {
		if e.From == run.RunningJob {
			completedAt = e.Timestamp
		}
	}))

	res, err := h.Run(context.Background())
	s.Require().NoError(err)
	s.Equal(run.Passed, res.Phase)
	s.Require().NotNil(res.KilledWorker)

	var driverStart event
	for _, e := range s.launcher.events.all() {
		if e.Kind == "start" && e.Name == "driver" {
			driverStart = e
		}
	}
	s.Require().False(driverStart.At.IsZero())
	kill, ok := s.launcher.events.find("kill")
	s.Require().True(ok)
	s.True(kill.DriverAlive, "kill must land while the driver is running")
	s.True(kill.At.After(driverStart.At))
	s.True(kill.At.Before(completedAt))

	killed := 0
	for _, w := range s.launcher.startedWorkers() {
		if w.wasKilled() {
			killed++
			s.Equal(res.KilledWorker.PID, w.pid)
			s.False(w.wasTerminated())
		} else {
			s.True(w.wasTerminated())
		}
	}
	s.Equal(1, killed)
}

func (s *HarnessTestSuite) TestInterruptStillCleansUp() {
	p := newProject(s.T(), sampleConfig, catDogInput, nil)
	ctx, cancel := context.WithCancel(context.Background())
	s.launcher.onDriver = func(*fakeProcess) {
		time.AfterFunc(30*time.Millisecond, cancel)
	}

	res, err := s.harness(p.cfg).Run(ctx)
	s.Require().Error(err)
	s.ErrorIs(err, context.Canceled)
	s.Equal(run.Interrupted, res.Phase)
	s.Equal(ExitInterrupted, res.ExitCode)
	s.True(s.launcher.driver.wasTerminated())
	for _, w := range s.launcher.startedWorkers() {
		s.True(w.wasTerminated())
	}
}

func (s *HarnessTestSuite) TestMissingConfigAborts() {
	p := newProject(s.T(), "", nil, nil)

	res, err := s.harness(p.cfg).Run(context.Background())
	s.ErrorIs(err, domain.ErrConfigNotFound)
	s.Equal(run.Aborted, res.Phase)
	s.Equal(ExitFailed, res.ExitCode)
	s.Empty(s.launcher.events.all())
}

func (s *HarnessTestSuite) TestPartialFleetStillRuns() {
	p := newProject(s.T(), sampleConfig, catDogInput, map[string]string{
		"out": "the 2\ncat 1\nsat 1\ndog 1\nran 1\n",
	})
	s.launcher.failFor["localhost:50052"] = true
	s.launcher.onDriver = driverExitsAfter(s.launcher, 10*time.Millisecond, 0)

	res, err := s.harness(p.cfg).Run(context.Background())
	s.Require().NoError(err)
	s.Equal(run.Passed, res.Phase)
	s.Len(s.launcher.startedWorkers(), 2)
}

func (s *HarnessTestSuite) TestMissingOutputDirectoryFailsValidation() {
	p := newProject(s.T(), sampleConfig, catDogInput, nil)
	s.launcher.onDriver = driverExitsAfter(s.launcher, 10*time.Millisecond, 0)

	res, err := s.harness(p.cfg).Run(context.Background())
	s.Require().NoError(err)
	s.Equal(run.Failed, res.Phase)
	s.Len(res.Failures, 5)
	for _, f := range res.Failures {
		s.Equal(domain.FailureMissing, f.Kind)
	}
}
