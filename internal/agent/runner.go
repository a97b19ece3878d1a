package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/scoutdig/scout/config"
	"github.com/scoutdig/scout/internal/agent/telemetry"
	"github.com/scoutdig/scout/internal/runlog"
	"github.com/scoutdig/scout/internal/tools"
	"github.com/scoutdig/scout/models"
	"github.com/scoutdig/scout/provider"
)

// State describes where a run currently is in its loop.
type State string

const (
	StateAwaitingModel State = "awaiting_model"
	StateExecutingTool State = "executing_tool"
	StateDone          State = "done"
)

// ErrIterationLimit is returned when the model keeps requesting tools
// past the configured cap without producing a final answer.
var ErrIterationLimit = errors.New("tool iteration limit reached")

// Runner drives one query through the model/tool loop until the model
// answers in plain text, then records the run.
type Runner struct {
	config    config.AgentConfig
	logger    *log.Logger
	provider  provider.Provider
	registry  *tools.Registry
	telemetry *telemetry.Telemetry
	runLog    *runlog.Writer

	model       string
	llmTimeout  time.Duration
	toolTimeout time.Duration
}

// NewRunner wires the loop. runLog may be nil when logging is disabled.
func NewRunner(cfg *config.Config, p provider.Provider, registry *tools.Registry, tel *telemetry.Telemetry, runLog *runlog.Writer) *Runner {
	llmTimeout := cfg.LLM.Timeout
	if llmTimeout <= 0 {
		llmTimeout = 120 * time.Second
	}
	toolTimeout := cfg.Tools.Timeout
	if toolTimeout <= 0 {
		toolTimeout = 30 * time.Second
	}
	return &Runner{
		config:      cfg.Agent,
		logger:      log.New(log.Writer(), "[AGENT] ", log.LstdFlags),
		provider:    p,
		registry:    registry,
		telemetry:   tel,
		runLog:      runLog,
		model:       cfg.LLM.Model,
		llmTimeout:  llmTimeout,
		toolTimeout: toolTimeout,
	}
}

// Run executes one query. history carries earlier turns of the same
// chat session and is never mutated. The returned RunLog is complete
// even when err is non-nil, failed runs are recorded too.
func (r *Runner) Run(ctx context.Context, query string, history []models.Turn) (models.RunLog, error) {
	start := time.Now()
	runID := uuid.NewString()

	turns := make([]models.Turn, 0, len(history)+2)
	turns = append(turns, history...)
	turns = append(turns, models.Turn{Role: models.RoleUser, Content: query})

	var (
		toolRecords []models.ToolCallRecord
		toolsUsed   []string
		tokens      int64
		answer      string
		runErr      error
	)

	state := StateAwaitingModel
	maxIterations := r.config.MaxToolIterations
	if maxIterations <= 0 {
		maxIterations = 8
	}

loop:
	for iteration := 0; ; iteration++ {
		if iteration >= maxIterations {
			runErr = ErrIterationLimit
			break
		}

		completion, err := r.complete(ctx, turns)
		tokens += completion.InputTokens + completion.OutputTokens
		if err != nil {
			runErr = fmt.Errorf("model request: %w", err)
			break
		}

		turns = append(turns, models.Turn{
			Role:      models.RoleAssistant,
			Content:   completion.Content,
			ToolCalls: completion.ToolCalls,
		})

		if completion.Done() {
			answer = completion.Content
			state = StateDone
			break
		}

		state = StateExecutingTool
		for _, call := range completion.ToolCalls {
			record, toolTurn, err := r.executeTool(ctx, call)
			toolRecords = append(toolRecords, record)
			toolsUsed = append(toolsUsed, call.Name)
			if err != nil {
				runErr = err
				break loop
			}
			turns = append(turns, toolTurn)
		}
		state = StateAwaitingModel
	}

	latency := time.Since(start)
	if state != StateDone {
		r.logger.Printf("run %s aborted in state %s: %v", runID, state, runErr)
	}
	entry := models.RunLog{
		ID:             runID,
		Timestamp:      start.UTC(),
		Query:          query,
		Turns:          turns,
		ToolCalls:      toolRecords,
		TokensUsed:     tokens,
		LatencySeconds: latency.Seconds(),
		Answer:         answer,
		Success:        runErr == nil,
	}
	if runErr != nil {
		entry.Error = runErr.Error()
	}

	if r.telemetry != nil {
		r.telemetry.RecordRunEvent(telemetry.RunEvent{
			ID:         runID,
			Query:      query,
			StartTime:  start,
			EndTime:    start.Add(latency),
			Latency:    latency,
			Success:    runErr == nil,
			Error:      entry.Error,
			TokensUsed: tokens,
			ToolsUsed:  toolsUsed,
			Model:      r.model,
		})
	}

	if r.runLog != nil {
		if err := r.runLog.Append(entry); err != nil {
			// Log failures never abort a run.
			r.logger.Printf("run %s: %v", runID, err)
		}
	}

	return entry, runErr
}

// complete performs one model round trip with its own timeout.
func (r *Runner) complete(ctx context.Context, turns []models.Turn) (models.Completion, error) {
	llmCtx, cancel := context.WithTimeout(ctx, r.llmTimeout)
	defer cancel()

	started := time.Now()
	completion, err := r.provider.Complete(llmCtx, models.CompletionRequest{
		System: r.config.SystemPrompt,
		Turns:  turns,
		Tools:  r.registry.Descriptors(),
	})
	if r.telemetry != nil {
		r.telemetry.RecordLLMEvent(telemetry.LLMEvent{
			Model:        r.model,
			Duration:     time.Since(started),
			InputTokens:  completion.InputTokens,
			OutputTokens: completion.OutputTokens,
			Success:      err == nil,
		})
	}
	return completion, err
}

// executeTool invokes one requested tool. Execution failures are fed
// back to the model as the tool turn so it can recover or answer
// without the result. Unknown tool names fail the run.
func (r *Runner) executeTool(ctx context.Context, call models.ToolCall) (models.ToolCallRecord, models.Turn, error) {
	record := models.ToolCallRecord{
		ToolName:   call.Name,
		ToolCallID: call.ID,
		Args:       call.Args,
	}

	toolCtx, cancel := context.WithTimeout(ctx, r.toolTimeout)
	defer cancel()

	started := time.Now()
	output, err := r.registry.Invoke(toolCtx, call.Name, call.Args)

	if r.telemetry != nil {
		r.telemetry.RecordToolEvent(telemetry.ToolEvent{
			Tool:     call.Name,
			Duration: time.Since(started),
			Success:  err == nil,
		})
	}

	turn := models.Turn{
		Role:       models.RoleTool,
		ToolCallID: call.ID,
		ToolName:   call.Name,
	}

	if err != nil {
		record.Error = err.Error()
		if errors.Is(err, tools.ErrUnknownTool) {
			return record, turn, err
		}
		r.logger.Printf("tool %s failed: %v", call.Name, err)
		turn.Content = fmt.Sprintf("tool error: %v", err)
		return record, turn, nil
	}

	record.Output = output
	turn.Content = output
	return record, turn, nil
}
