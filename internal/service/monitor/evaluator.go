package monitor

import (
	"context"
	"fmt"
	"strings"

	domain "sysalarm/internal/domain/alarm"
	"sysalarm/internal/eventlog"
	"sysalarm/internal/logger"
)

// evaluate reduces a usage snapshot to at most one triggered alarm and
// publishes it. Resources are walked in the fixed enumeration order and
// a later breaching resource overwrites an earlier one, so when several
// resources breach in the same cycle only the last one in the order
// survives. The consumer's single-alarm display depends on exactly this.
func (m *Manager) evaluate(ctx context.Context, usage domain.Usage) {
	now := m.now()
	hour := now.Hour()
	rules := m.snapshotRules()
	domain.SortRules(rules)

	var current *domain.Triggered

	for _, resource := range domain.EvaluationOrder {
		value := usage.ValueFor(resource)

		winner := selectWinner(rules, resource, value, hour)
		if winner == nil {
			continue
		}

		current = &domain.Triggered{
			Rule:         *winner,
			CurrentValue: value,
			TriggeredAt:  now,
		}

		m.announce(ctx, current)
	}

	m.setTriggered(current)
}

// selectWinner picks the breached rule that wins a resource this cycle:
// thresholds are breached inclusively (threshold <= value), rules outside
// their active period are invisible, and of the remaining candidates the
// highest threshold wins with ties broken by first encounter. The
// active-period filter runs before max-selection so an inactive
// high-threshold rule cannot suppress an active lower one.
func selectWinner(rules []domain.Rule, resource domain.Resource, value float64, hour int) *domain.Rule {
	var winner *domain.Rule

	for i := range rules {
		r := &rules[i]
		if r.Resource != resource || float64(r.Threshold) > value {
			continue
		}

		if !r.Period.ActiveAt(hour) {
			continue
		}

		if winner == nil || r.Threshold > winner.Threshold {
			winner = r
		}
	}

	return winner.Clone()
}

// announce records a (re)established alarm and, for the security-relevant
// logs class or when alert-on-any is set, sends a notification.
// Notification failures are logged and never abort evaluation.
func (m *Manager) announce(ctx context.Context, trig *domain.Triggered) {
	resource := trig.Rule.Resource

	if resource == domain.ResourceLogs {
		m.logEvent(ctx, fmt.Sprintf("Security alert: log count %d exceeds %d",
			int(trig.CurrentValue), trig.Rule.Threshold), eventlog.CategorySecurity)
	} else {
		m.logEvent(ctx, fmt.Sprintf("%s usage alarm triggered at %d percent",
			strings.ToUpper(string(resource)), trig.Rule.Threshold), eventlog.CategoryAlarm)
	}

	logger.WarnKV(ctx, "Alarm triggered",
		"alarm", trig.Rule.Name,
		"resource", resource,
		"value", formatValue(resource, trig.CurrentValue),
		"threshold", trig.Rule.Threshold)

	if resource != domain.ResourceLogs && !m.alertOnAny {
		return
	}

	if m.notify == nil {
		return
	}

	subject := fmt.Sprintf("ALERT: %s alarm triggered", strings.ToUpper(string(resource)))
	body := fmt.Sprintf("Alarm %q triggered. Resource: %s, Current value: %s, Threshold: %d, Time: %s",
		trig.Rule.Name, resource, formatValue(resource, trig.CurrentValue),
		trig.Rule.Threshold, trig.TriggeredAt.Format("2006-01-02 15:04:05"))

	if err := m.notify.Send(ctx, subject, body); err != nil {
		logger.ErrorKV(ctx, "Failed to send alert notification", "error", err)
		m.logEvent(ctx, "Failed to send alert notification", eventlog.CategoryError)
	}
}
