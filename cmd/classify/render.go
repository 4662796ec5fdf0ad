package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-jose/go-jose/v4/json"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/0lexplorer/explorerx/pkg/provenance"
)

// writeJSON prints the classification with the encoder the HTTP API uses.
func writeJSON(w io.Writer, c *provenance.Classification) error {
	return json.NewEncoder(w).Encode(c)
}

// render prints the classification as a set of terminal tables.
func render(w io.Writer, c *provenance.Classification) {
	newTable(w, "Address", summaryRows(c)).Render()

	if !c.AccountFound && len(c.Errors) == 0 {
		return
	}

	if c.TowerState != nil {
		t := newTable(w, "Tower", []table.Row{
			{"Verified tower height", c.TowerState.VerifiedTowerHeight},
			{"Proofs in epoch", c.TowerState.ProofsInEpoch},
			{"Last epoch mined", c.TowerState.LastEpochMined},
			{"Epochs mining", c.TowerState.EpochsMining},
			{"Contiguous epochs mining", c.TowerState.ContiguousEpochsMining},
			{"Epochs since last account creation", c.TowerState.EpochsSinceLastAccountCreation},
		})
		t.Render()
	}

	if len(c.ProofHistory) > 0 {
		rows := make([]table.Row, 0, len(c.ProofHistory))
		for _, p := range c.ProofHistory {
			rows = append(rows, table.Row{p.Epoch, p.Count})
		}
		t := newTable(w, "Proof history", rows)
		t.AppendHeader(table.Row{"Epoch", "Proofs"})
		t.Render()
	}

	if c.Vitals != nil {
		renderVitals(w, c.Vitals)
	}

	if len(c.Errors) > 0 {
		rows := make([]table.Row, 0, len(c.Errors))
		for _, e := range c.Errors {
			rows = append(rows, table.Row{e.Stage, e.Kind, e.Code, e.Message})
		}
		t := newTable(w, "Errors", rows)
		t.AppendHeader(table.Row{"Stage", "Kind", "Code", "Message"})
		t.Render()
	}
}

func summaryRows(c *provenance.Classification) []table.Row {
	rows := []table.Row{
		{"Address", c.Address.String()},
		{"Role", c.Role},
	}
	if !c.AccountFound {
		return append(rows, table.Row{"Account", "not found"})
	}
	if c.Account != nil {
		rows = append(rows, table.Row{"Balance", strconv.FormatFloat(c.Account.Balance, 'f', 6, 64)})
	}
	if c.CommunityWallet != nil {
		rows = append(rows, table.Row{"Community wallet", c.CommunityWallet.Name})
	}
	rows = append(rows, table.Row{"Lookup", c.LookupPath})
	rows = appendIf(rows, "Onboarded by", c.OnboardedBy)
	if c.ValidatorCreatedBy != nil {
		rows = append(rows, table.Row{"Validator created by", c.ValidatorCreatedBy.Creator()})
	}
	if c.OperatorAccount != nil {
		rows = append(rows, table.Row{"Operator account", c.OperatorAccount.String()})
	}
	rows = appendOnboarding(rows, "Miner", c.Miner)
	rows = appendOnboarding(rows, "Validator", c.Validator)
	if c.Role == provenance.RoleValidator {
		rows = append(rows, table.Row{"In active set", c.InActiveSet})
	}
	return rows
}

func appendIf(rows []table.Row, label, value string) []table.Row {
	if value == "" {
		return rows
	}
	return append(rows, table.Row{label, value})
}

func appendOnboarding(rows []table.Row, facet string, o *provenance.Onboarding) []table.Row {
	if o == nil {
		return rows
	}
	if o.EpochOnboarded != nil {
		rows = append(rows, table.Row{facet + " epoch onboarded", *o.EpochOnboarded})
	}
	if o.Generation != nil {
		rows = append(rows, table.Row{facet + " generation", *o.Generation})
	}
	return rows
}

func renderVitals(w io.Writer, v *provenance.ValidatorVitals) {
	newTable(w, "Vitals", []table.Row{
		{"Votes in epoch", v.VoteCountInEpoch},
		{"Proposals in epoch", v.PropCountInEpoch},
		{"Autopay recurring", fmt.Sprintf("%.2f%%", v.Autopay.RecurringPercent)},
	}).Render()

	if len(v.Autopay.Payments) == 0 {
		return
	}
	rows := make([]table.Row, 0, len(v.Autopay.Payments))
	for _, p := range v.Autopay.Payments {
		payee := p.Payee
		if p.PayeeName != "" {
			payee = p.PayeeName + " (" + p.Payee + ")"
		}
		rows = append(rows, table.Row{payee, p.Amount, p.EndEpoch})
	}
	t := newTable(w, "Autopay", rows)
	t.AppendHeader(table.Row{"Payee", "Amount", "End epoch"})
	t.Render()
}

func newTable(w io.Writer, title string, rows []table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	t.AppendRows(rows)
	return t
}
