package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"projecthub/internal/apiclient"
	"projecthub/internal/model"
	"projecthub/internal/poller"
	"projecthub/internal/validation"
	"projecthub/pkg/mq"
	"projecthub/pkg/rbac"
)

// describe 把错误转换成适合终端显示的形式
func describe(err error) error {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return fmt.Errorf("%s", strings.Join(verr.Messages(), "; "))
	}
	if errors.Is(err, apiclient.ErrUnauthorized) {
		return errors.New("not authorized: check your email and password")
	}
	if errors.Is(err, apiclient.ErrCircuitOpen) {
		return errors.New("project API unavailable, try again later")
	}
	var denied *rbac.PermissionDeniedError
	if errors.As(err, &denied) {
		return denied
	}
	return err
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *cli) table() *tabwriter.Writer {
	return tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
}

func formatDate(d *model.Date) string {
	if !model.Present(d) {
		return "-"
	}
	return d.String()
}

func (c *cli) login(ctx context.Context) error {
	sess, err := c.signIn(ctx)
	if err != nil {
		return err
	}
	if c.opts.jsonOut {
		return c.printJSON(sess.User())
	}
	fmt.Fprintf(c.out, "Logged in as %s (id %d, %s)\n", sess.Name, sess.UserID, sess.Role)
	if !sess.ExpiresAt.IsZero() {
		fmt.Fprintf(c.out, "Token expires at %s\n", sess.ExpiresAt.Format(time.RFC3339))
	}
	return nil
}

func (c *cli) dashboard(ctx context.Context) error {
	sess, err := c.signIn(ctx)
	if err != nil {
		return err
	}
	if !sess.IsProjectManager() {
		return errors.New("the dashboard is for project managers; try `pmctl member`")
	}
	d, err := c.svc.Projects.Dashboard(ctx, sess)
	if err != nil {
		return describe(err)
	}
	if c.opts.jsonOut {
		return c.printJSON(d)
	}

	w := c.table()
	fmt.Fprintln(w, "ID\tTITLE\tBUDGET\tREMAINING\tSTART\tDEADLINE\tTASKS")
	for _, p := range d.Projects {
		remaining := "-"
		if p.RemainingBudget.Valid {
			remaining = p.RemainingBudget.Decimal.StringFixed(2)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%d\n",
			p.ID, p.Title, p.Budget.StringFixed(2), remaining,
			formatDate(p.StartDate), formatDate(p.Deadline), len(p.Tasks))
	}
	return w.Flush()
}

func (c *cli) member(ctx context.Context) error {
	sess, err := c.signIn(ctx)
	if err != nil {
		return err
	}
	view, err := c.svc.Dashboard.Member(ctx, sess)
	if err != nil {
		return describe(err)
	}
	if c.opts.jsonOut {
		return c.printJSON(view)
	}

	if len(view.Projects) == 0 {
		fmt.Fprintln(c.out, "No tasks assigned.")
		return nil
	}
	for _, g := range view.Projects {
		fmt.Fprintf(c.out, "%s (#%d)\n", g.Title, g.ID)
		w := c.table()
		for _, t := range g.Tasks {
			fmt.Fprintf(w, "  %d\t%s\t%s\t%s\tdue %s\n", t.ID, t.Title, t.Status, t.Priority, formatDate(t.Deadline))
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func (c *cli) progress(ctx context.Context) error {
	sess, err := c.signIn(ctx)
	if err != nil {
		return err
	}
	all, err := c.svc.Projects.Overview(ctx, sess)
	if err != nil {
		return describe(err)
	}
	if c.opts.jsonOut {
		return c.printJSON(all)
	}

	w := c.table()
	fmt.Fprintln(w, "ID\tTITLE\tTASKS\tTIMELINE\tBUDGET\tSPENT\tSTATUS")
	for _, p := range all {
		fmt.Fprintf(w, "%d\t%s\t%d%% of %d\t%d%%\t%d%%\t%s / %s\t%s\n",
			p.ProjectID, p.Title, p.TaskCompletion, p.TaskCount, p.Timeline, p.Budget,
			p.Summary.TotalSpent.StringFixed(2), p.Summary.Budget.StringFixed(2), p.BudgetLevel)
	}
	return w.Flush()
}

func (c *cli) notifications(ctx context.Context) error {
	sess, err := c.signIn(ctx)
	if err != nil {
		return err
	}
	items, err := c.svc.Notifications.List(ctx, sess)
	if err != nil {
		return describe(err)
	}
	unread, err := c.svc.Notifications.UnreadCount(ctx, sess)
	if err != nil {
		return describe(err)
	}
	if c.opts.jsonOut {
		return c.printJSON(map[string]any{"unread": unread, "notifications": items})
	}

	fmt.Fprintf(c.out, "%d unread\n", unread)
	w := c.table()
	for _, n := range items {
		mark := " "
		if !n.Read {
			mark = "*"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", mark, n.ID, n.CreatedAt.Local().Format("2006-01-02 15:04"), n.Message)
	}
	return w.Flush()
}

// stdoutPublisher watch 命令把事件打印到终端而不是 MQ
type stdoutPublisher struct {
	c  *cli
	mu sync.Mutex
}

func (p *stdoutPublisher) Publish(_ context.Context, routingKey string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.c.opts.jsonOut {
		return p.c.printJSON(map[string]any{"event": routingKey, "payload": payload})
	}
	fmt.Fprintf(p.c.out, "[%s] %s %s\n", time.Now().Format("15:04:05"), routingKey, summarize(payload))
	return nil
}

// summarize 事件的一行描述
func summarize(payload any) string {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%v", payload)
	}
	return string(raw)
}

func (c *cli) watch(ctx context.Context) error {
	if c.opts.email == "" || c.opts.password == "" {
		return errors.New("--email and --password (or PM_EMAIL / PM_PASSWORD) are required")
	}
	scope, err := apiclient.ParseActivityScope(c.opts.scope)
	if err != nil {
		return err
	}

	sessions := poller.NewLoginSession(c.api, c.credentials())
	if _, err := sessions.Current(ctx); err != nil {
		return describe(err)
	}

	pub := &stdoutPublisher{c: c}
	dedup := poller.NewMemoryDeduper()
	notifications := &poller.NotificationWatcher{
		API:       c.api,
		Sessions:  sessions,
		Publisher: pub,
		Dedup:     dedup,
		Counts:    poller.NewMemoryCountCache(),
		Logger:    c.logger,
	}
	activities := &poller.ActivityWatcher{
		API:       c.api,
		Sessions:  sessions,
		Scope:     scope,
		Publisher: pub,
		Dedup:     dedup,
		Logger:    c.logger,
	}

	fmt.Fprintf(c.out, "Watching notifications and %s activities every %s (Ctrl-C to stop)\n", scope, c.cfg.Poll.Interval)

	var wg sync.WaitGroup
	for _, l := range []*poller.Loop{
		{Name: "notifications", Interval: c.cfg.Poll.Interval, TickTimeout: c.cfg.Poll.TickTimeout, Tick: notifications.Tick, Logger: c.logger},
		{Name: "activities", Interval: c.cfg.Poll.Interval, TickTimeout: c.cfg.Poll.TickTimeout, Tick: activities.Tick, Logger: c.logger},
	} {
		wg.Add(1)
		go func(l *poller.Loop) {
			defer wg.Done()
			l.Run(ctx)
		}(l)
	}
	wg.Wait()
	return nil
}

func (c *cli) events(ctx context.Context) error {
	sub, err := mq.NewSubscriber(c.cfg.MQ.URL, c.cfg.MQ.Exchange, c.opts.pattern, c.logger)
	if err != nil {
		return err
	}
	defer sub.Close()

	fmt.Fprintf(c.out, "Listening on %s for %q (Ctrl-C to stop)\n", c.cfg.MQ.Exchange, c.opts.pattern)

	err = sub.Consume(ctx, func(_ context.Context, routingKey string, data json.RawMessage) error {
		if c.opts.jsonOut {
			return c.printJSON(map[string]any{"event": routingKey, "payload": data})
		}
		fmt.Fprintf(c.out, "[%s] %s %s\n", time.Now().Format("15:04:05"), routingKey, string(data))
		return nil
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}
