package eligibility

// Result explains an eligibility decision.
type Result struct {
	Eligible  bool   `json:"eligible"`
	Verified  bool   `json:"verified"`
	Certified bool   `json:"certified"`
	RiskScore int    `json:"risk_score"`
	Reason    string `json:"reason,omitempty"`
}
