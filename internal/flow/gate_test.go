package flow

import (
	"testing"
	"time"

	"github.com/IgorLuiz777/onedi-02/internal/models"
)

func newTestGate(st *mockStore) *Gate {
	g := NewGate(st)
	g.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return g
}

func seedTrialUser(st *mockStore, remaining int) {
	st.users[testPhone] = &models.UserProfile{
		ID: 1, Phone: testPhone, PlanStatus: models.PlanTrial,
		TrialMinutesLimit: 30, TrialMinutesUsed: 30 - remaining,
	}
}

func TestGateBlocksWhenBudgetInsufficient(t *testing.T) {
	cases := []struct {
		remaining, cost int
		wantAllowed     bool
	}{
		{10, 2, true},
		{3, 2, true},
		{2, 2, false}, // remaining - cost == 0 blocks
		{1, 2, false},
		{0, 2, false},
		{1, 1, false},
		{2, 1, true},
	}
	for _, tc := range cases {
		st := newMockStore()
		seedTrialUser(st, tc.remaining)
		d, err := newTestGate(st).Check(testPhone, tc.cost)
		if err != nil {
			t.Fatalf("Check(%d, %d) error = %v", tc.remaining, tc.cost, err)
		}
		if d.Allowed != tc.wantAllowed {
			t.Errorf("remaining %d cost %d: allowed = %v, want %v",
				tc.remaining, tc.cost, d.Allowed, tc.wantAllowed)
		}
	}
}

func TestGateBlockDoesNotDeduct(t *testing.T) {
	st := newMockStore()
	seedTrialUser(st, 1)
	if _, err := newTestGate(st).Check(testPhone, CostTextTurn); err != nil {
		t.Fatal(err)
	}
	if used := st.users[testPhone].TrialMinutesUsed; used != 29 {
		t.Errorf("minutes deducted on block: used = %d, want 29", used)
	}
}

func TestGateDeductsAndWarnsNearExhaustion(t *testing.T) {
	st := newMockStore()
	seedTrialUser(st, 4)
	d, err := newTestGate(st).Check(testPhone, CostTextTurn)
	if err != nil {
		t.Fatal(err)
	}
	if !d.Allowed {
		t.Fatal("action blocked with sufficient budget")
	}
	if d.MinutesRemaining != 2 {
		t.Errorf("remaining = %d, want 2", d.MinutesRemaining)
	}
	if !d.Warn {
		t.Error("no warning at the low-water mark")
	}

	// Plenty of budget: no warning.
	st = newMockStore()
	seedTrialUser(st, 20)
	d, _ = newTestGate(st).Check(testPhone, CostTextTurn)
	if d.Warn {
		t.Error("warning with plenty of budget")
	}
}

func TestGatePaidPlanExpiry(t *testing.T) {
	st := newMockStore()
	past := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	st.users[testPhone] = &models.UserProfile{
		ID: 1, Phone: testPhone, PlanStatus: models.PlanActive, PlanExpiry: &past,
		TrialMinutesLimit: 30,
	}
	d, err := newTestGate(st).Check(testPhone, CostTextTurn)
	if err != nil {
		t.Fatal(err)
	}
	if d.Allowed {
		t.Error("expired paid plan allowed regardless of minute fields")
	}

	future := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	st.users[testPhone].PlanExpiry = &future
	d, _ = newTestGate(st).Check(testPhone, CostTextTurn)
	if !d.Allowed || d.MinutesRemaining != -1 {
		t.Errorf("active plan decision = %+v, want unlimited allow", d)
	}
}

func TestGateUnknownUserDenied(t *testing.T) {
	d, err := newTestGate(newMockStore()).Check(testPhone, CostTextTurn)
	if err != nil {
		t.Fatal(err)
	}
	if d.Allowed {
		t.Error("unknown user allowed")
	}
}

func TestCheckLanguageEntitlement(t *testing.T) {
	g := newTestGate(newMockStore())

	trial := &models.UserProfile{PlanStatus: models.PlanTrial, TestLanguage: models.LanguageEnglish}
	if !g.CheckLanguage(trial, models.LanguageEnglish) {
		t.Error("trial user denied own test language")
	}
	if g.CheckLanguage(trial, models.LanguageSpanish) {
		t.Error("trial user allowed a second language")
	}

	paid := &models.UserProfile{
		PlanStatus:        models.PlanActive,
		EntitledLanguages: []string{models.LanguageEnglish, models.LanguageFrench},
	}
	if !g.CheckLanguage(paid, models.LanguageFrench) {
		t.Error("paid user denied entitled language")
	}
	if g.CheckLanguage(paid, models.LanguageMandarin) {
		t.Error("paid user allowed unentitled language")
	}

	if g.CheckLanguage(nil, models.LanguageEnglish) {
		t.Error("nil profile allowed")
	}
}
