package validate

import (
	"context"
	"fmt"
)

// CheckFunc is a rule predicate. It returns false with messages when the
// subject fails the rule. A returned error means the rule itself could not
// run; the rule is then skipped.
type CheckFunc func(ctx context.Context, subject any) (ok bool, messages []string, err error)

// Rule is a named check attached to one category. Rules in
// CategoryGeneral run for every category.
type Rule struct {
	ID       string
	Category Category
	Check    CheckFunc
}

// Register appends rules to the registry. Rules run in registration order.
func (v *Validator) Register(rules ...Rule) {
	v.rules = append(v.rules, rules...)
}

// Rules returns the registered rules in order.
func (v *Validator) Rules() []Rule {
	out := make([]Rule, len(v.rules))
	copy(out, v.rules)
	return out
}

func (v *Validator) runRules(ctx context.Context, category Category, subject any, res *Result) {
	for _, rule := range v.rules {
		if rule.Category != category && rule.Category != CategoryGeneral {
			continue
		}
		ok, messages, err := v.runRule(ctx, rule, subject)
		if err != nil {
			v.log.Warn("validation rule skipped", "rule", rule.ID, "error", err)
			continue
		}
		if ok {
			continue
		}
		if len(messages) == 0 {
			messages = []string{fmt.Sprintf("rule %s failed", rule.ID)}
		}
		for _, msg := range messages {
			res.add(Issue{
				Category: category,
				Severity: SeverityError,
				Code:     codeRuleFailed,
				Field:    rule.ID,
				Message:  msg,
			})
		}
	}
}

// runRule calls rule.Check, turning a panic into an error.
func (v *Validator) runRule(ctx context.Context, rule Rule, subject any) (ok bool, messages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rule %s panicked: %v", rule.ID, r)
		}
	}()
	if rule.Check == nil {
		return true, nil, nil
	}
	return rule.Check(ctx, subject)
}
