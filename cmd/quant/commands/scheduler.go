package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/niftyquant/internal/scheduler"
	"github.com/wonny/niftyquant/internal/scheduler/jobs"
)

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 작업 관리",
	Long: `등록된 스케줄 작업을 조회하거나 즉시 실행합니다.

Jobs:
  dataset_reload  - 데이터셋 스냅샷 재로딩 (RELOAD_SCHEDULE)
  artifact_sweep  - 만료된 플롯 정리 (10분 간격)
  model_refresh   - 모델 메타데이터 캐시 비우기 (5분 간격)

Example:
  go run ./cmd/quant scheduler list
  go run ./cmd/quant scheduler run dataset_reload`,
}

var schedulerListCmd = &cobra.Command{
	Use:   "list",
	Short: "등록된 작업 목록",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			sched, err := newScheduler(a)
			if err != nil {
				return err
			}

			stats := sched.GetJobStats()
			if jsonOutput {
				return PrintJSON(stats)
			}

			widths := []int{18, 20}
			PrintTableHeader([]string{"Job", "Schedule"}, widths)
			for _, name := range sched.GetAllJobs() {
				PrintTableRow([]string{name, stats[name].Schedule}, widths)
			}
			return nil
		})
	},
}

var schedulerRunCmd = &cobra.Command{
	Use:   "run [job]",
	Short: "작업 즉시 실행",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			sched, err := newScheduler(a)
			if err != nil {
				return err
			}

			result, err := sched.RunJob(args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return PrintJSON(result)
			}

			if !result.Success {
				PrintWarning(fmt.Sprintf("%s failed after %v: %s", result.JobName, result.Duration, result.Error))
				return fmt.Errorf("job %s failed", result.JobName)
			}
			PrintSuccess(fmt.Sprintf("%s completed in %v", result.JobName, result.Duration))
			return nil
		})
	},
}

// newScheduler 기본 작업이 등록된 스케줄러 (시작하지 않음)
func newScheduler(a *app) (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log)
	if err := sched.AddJob(jobs.NewDatasetReloadJob(a.service, a.cfg.ReloadSchedule, a.log)); err != nil {
		return nil, err
	}
	if err := sched.AddJob(jobs.NewArtifactSweepJob(a.service, a.log)); err != nil {
		return nil, err
	}
	if err := sched.AddJob(jobs.NewModelRefreshJob(a.registry, a.log)); err != nil {
		return nil, err
	}
	return sched, nil
}

func init() {
	schedulerCmd.AddCommand(schedulerListCmd, schedulerRunCmd)
	rootCmd.AddCommand(schedulerCmd)
}
