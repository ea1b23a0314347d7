package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/todo-1m/tasklist/internal/app/commandapi"
	"github.com/todo-1m/tasklist/internal/domain/command"
	"github.com/todo-1m/tasklist/internal/domain/task"
	"github.com/todo-1m/tasklist/internal/platform/env"
	"github.com/todo-1m/tasklist/internal/platform/logging"
	"github.com/todo-1m/tasklist/internal/platform/metrics"
)

type simulatedUser struct {
	Index int

	mu    sync.Mutex
	tasks map[string]string
}

type runner struct {
	cfg    env.LoadGenerator
	client *http.Client
	logger *log.Entry

	requestsSuccess atomic.Int64
	requestsError   atomic.Int64
	activeVUs       atomic.Int64
}

var (
	requestsTotal = metrics.NewCounterVec(metrics.Opts{
		Name: "loadgen_requests_total",
		Help: "Total command requests sent by load generator.",
	}, []string{"command", "status", "outcome"})

	virtualUsersGauge = metrics.NewGauge(metrics.Opts{
		Name: "loadgen_virtual_users",
		Help: "Current number of active virtual users sending commands.",
	})
)

func init() {
	metrics.Default.MustRegister(requestsTotal, virtualUsersGauge)
}

func main() {
	var cfg env.LoadGenerator
	if err := env.Load(&cfg); err != nil {
		log.Fatal(err)
	}
	if cfg.Users <= 0 {
		log.Fatal("LOADGEN_USERS must be > 0")
	}
	logger := logging.Setup("load-generator", cfg.LogLevel, "text")

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx := baseCtx
	if cfg.Duration > 0 {
		timeoutCtx, cancel := context.WithTimeout(baseCtx, cfg.Duration)
		defer cancel()
		ctx = timeoutCtx
	}

	metrics.Serve(cfg.MetricsAddr)

	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	r := &runner{
		cfg:    cfg,
		logger: logger,
		client: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        cfg.Users * 4,
				MaxIdleConnsPerHost: cfg.Users * 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	logger.WithFields(log.Fields{
		"users":    cfg.Users,
		"duration": cfg.Duration.String(),
		"think":    cfg.ThinkTime.String(),
	}).Info("load generator starting")

	go r.logProgress(ctx)

	var wg sync.WaitGroup
	for i := 0; i < cfg.Users; i++ {
		wg.Add(1)
		go func(u *simulatedUser) {
			defer wg.Done()
			r.runUser(ctx, u)
		}(&simulatedUser{Index: i, tasks: make(map[string]string)})
	}

	<-ctx.Done()
	wg.Wait()

	logger.WithFields(log.Fields{
		"success_requests": r.requestsSuccess.Load(),
		"error_requests":   r.requestsError.Load(),
	}).Info("load test complete")
}

func (r *runner) runUser(ctx context.Context, user *simulatedUser) {
	virtualUsersGauge.Inc()
	r.activeVUs.Add(1)
	defer virtualUsersGauge.Dec()
	defer r.activeVUs.Add(-1)

	interval := r.cfg.ThinkTime
	if interval < 25*time.Millisecond {
		interval = 25 * time.Millisecond
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(user.Index*7)))
	select {
	case <-ctx.Done():
		return
	case <-time.After(time.Duration(rng.Int63n(int64(interval)))):
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.runAction(ctx, user, rng)
		}
	}
}

func (r *runner) runAction(ctx context.Context, user *simulatedUser, rng *rand.Rand) {
	taskID, description, ok := user.randomTask(rng)

	choice := rng.Float64()
	switch {
	case !ok || choice < 0.50:
		r.createTask(ctx, user, rng)
	case choice < 0.80:
		next := fmt.Sprintf("Load task %d", rng.Intn(1_000_000))
		err := r.send(ctx, task.CommandTypeUpdateTaskDescription, taskID, map[string]any{
			"description_change": map[string]string{"previous_value": description, "new_value": next},
		}, nil)
		if err == nil {
			user.setTask(taskID, next)
		}
	case choice < 0.92:
		_ = r.send(ctx, task.CommandTypeCompleteTask, taskID, map[string]any{}, nil)
	default:
		if err := r.send(ctx, task.CommandTypeDeleteTask, taskID, map[string]any{}, nil); err == nil {
			user.removeTask(taskID)
		}
	}
}

func (r *runner) createTask(ctx context.Context, user *simulatedUser, rng *rand.Rand) {
	description := fmt.Sprintf("Load task %d", rng.Intn(1_000_000))
	var resp commandapi.CommandResponse
	if err := r.send(ctx, task.CommandTypeCreateBasicTask, "", map[string]any{"description": description}, &resp); err != nil {
		return
	}
	if strings.TrimSpace(resp.AggregateID) != "" {
		user.setTask(resp.AggregateID, description)
	}
}

func (r *runner) send(ctx context.Context, commandType command.Type, aggregateID string, payload any, out any) error {
	name := string(commandType)
	rawPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(commandapi.CommandRequest{
		Type:        name,
		AggregateID: aggregateID,
		Payload:     rawPayload,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.BaseURL+"/api/v1/commands", bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		r.record(name, 0, err)
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err == nil && resp.StatusCode != http.StatusAccepted {
		err = fmt.Errorf("unexpected status=%d body=%s", resp.StatusCode, truncate(string(body), 240))
	}
	if err == nil && out != nil {
		err = json.Unmarshal(body, out)
	}
	r.record(name, resp.StatusCode, err)
	return err
}

func (r *runner) record(command string, status int, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
		r.requestsError.Add(1)
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			r.logger.WithError(err).WithField("command", command).Debug("command request failed")
		}
	} else {
		r.requestsSuccess.Add(1)
	}
	requestsTotal.WithLabelValues(command, strconv.Itoa(status), outcome).Inc()
}

func (r *runner) logProgress(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.logger.WithFields(log.Fields{
				"success_requests": r.requestsSuccess.Load(),
				"error_requests":   r.requestsError.Load(),
				"active_vus":       r.activeVUs.Load(),
			}).Info("progress")
		}
	}
}

func (u *simulatedUser) setTask(id, description string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.tasks[id] = description
}

func (u *simulatedUser) randomTask(rng *rand.Rand) (string, string, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.tasks) == 0 {
		return "", "", false
	}
	n := rng.Intn(len(u.tasks))
	for id, description := range u.tasks {
		if n == 0 {
			return id, description, true
		}
		n--
	}
	return "", "", false
}

func (u *simulatedUser) removeTask(id string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.tasks, id)
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	return value[:max] + "..."
}
