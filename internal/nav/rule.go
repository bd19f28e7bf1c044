package nav

// #region rule
// Rule is one guarded transition. Rule lists are evaluated top to bottom and the
// first rule whose Guard holds fires; at most one rule fires per cycle.
type Rule struct {
	Name  string
	Guard func(c Context, in Inputs) bool
	Fire  func(c Context, in Inputs) Context
}

// evaluateRules runs the first matching rule. It returns the unchanged context and
// a nil rule when nothing matches.
func evaluateRules(rules []Rule, c Context, in Inputs) (Context, *Rule) {
	for i := range rules {
		if rules[i].Guard(c, in) {
			return rules[i].Fire(c, in), &rules[i]
		}
	}
	return c, nil
}

// #endregion rule

// #region guards
func inState(states ...State) func(Context) bool {
	return func(c Context) bool {
		for _, s := range states {
			if c.State == s {
				return true
			}
		}
		return false
	}
}

// goTo moves to next without touching any snapshot.
func goTo(c Context, next State) Context {
	c.State = next
	return c
}

// #endregion guards
