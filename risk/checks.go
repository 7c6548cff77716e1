package risk

import "fmt"

type Violation struct {
	Code string
	Msg  string
}

type Decision struct {
	Allowed    bool
	Violations []Violation

	MaxLossAmount float64
	WorstCaseLoss float64
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Evaluate judges one proposed order against the policy. Reducing or closing
// trades are never blocked by the position cap, only opening new ones.
func Evaluate(p Policy, intent OrderIntent, acct AccountState) Decision {
	d := Decision{Allowed: true, WorstCaseLoss: intent.WorstCaseLoss}

	if p.MaxLossPct > 0 && acct.Balance > 0 {
		d.MaxLossAmount = acct.Balance * p.MaxLossPct
		if intent.WorstCaseLoss > d.MaxLossAmount {
			d.add("MAX_LOSS_EXCEEDED",
				fmt.Sprintf("worst-case loss %.2f exceeds limit %.2f (%.1f%% of balance)",
					intent.WorstCaseLoss, d.MaxLossAmount, 100*p.MaxLossPct))
		}
	}

	if p.MaxOpenPositions > 0 && intent.OpensNewPosition && acct.OpenPositions >= p.MaxOpenPositions {
		d.add("TOO_MANY_POSITIONS",
			fmt.Sprintf("open positions %d >= max %d", acct.OpenPositions, p.MaxOpenPositions))
	}

	return d
}
