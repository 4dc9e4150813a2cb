package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPacketStatus_Transitions(t *testing.T) {
	all := []PacketStatus{PacketPending, PacketProcessing, PacketCompleted, PacketFailed}

	allowed := map[PacketStatus][]PacketStatus{
		PacketPending:    {PacketProcessing, PacketFailed},
		PacketProcessing: {PacketCompleted, PacketFailed},
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equalf(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}

	assert.True(t, PacketCompleted.IsTerminal())
	assert.True(t, PacketFailed.IsTerminal())
	assert.False(t, PacketPending.IsTerminal())
	assert.True(t, PacketProcessing.IsActive())
	assert.False(t, PacketFailed.IsActive())
}

func TestTransitionSources(t *testing.T) {
	assert.Equal(t, []PacketStatus{PacketPending}, TransitionSources(PacketProcessing))
	assert.Equal(t, []PacketStatus{PacketProcessing}, TransitionSources(PacketCompleted))
	assert.Equal(t, []PacketStatus{PacketPending, PacketProcessing}, TransitionSources(PacketFailed))
	assert.Empty(t, TransitionSources(PacketPending))
}

func TestFilingStatus_RequiresSpouse(t *testing.T) {
	var nilStatus *FilingStatus
	assert.False(t, nilStatus.RequiresSpouse())
	assert.True(t, (&FilingStatus{Status: FilingMarried}).RequiresSpouse())
	assert.True(t, (&FilingStatus{Status: FilingMarriedSeparately}).RequiresSpouse())
	assert.False(t, (&FilingStatus{Status: FilingHeadOfHousehold}).RequiresSpouse())
}

func TestFileCategory(t *testing.T) {
	assert.True(t, Category1099Nec.IsTaxDocument())
	assert.True(t, CategoryOther.IsTaxDocument())
	assert.False(t, CategoryIDFrontSpouse.IsTaxDocument())
	assert.True(t, CategoryIDBackSpouse.Valid())
	assert.False(t, FileCategory("selfie").Valid())
}

func TestChecklistKey(t *testing.T) {
	f := "taxpayer.ssn"
	it := &ChecklistItem{ItemType: ItemMissingField, FieldName: &f}
	assert.Equal(t, "missing_field:taxpayer.ssn", it.Key())

	custom := &ChecklistItem{ItemType: ItemCustom}
	assert.Equal(t, "custom:", custom.Key())
	assert.True(t, ItemMissingDocument.IsAuto())
	assert.True(t, ItemClarificationNeeded.IsManual())
}

func TestTaxpayerHelpers(t *testing.T) {
	tp := &TaxpayerInfo{PhoneCell: "  "}
	assert.False(t, tp.HasPhone())
	tp.PhoneWork = "555-0100"
	assert.True(t, tp.HasPhone())

	assert.False(t, tp.HasSpouse())
	tp.SpouseSSNEncrypted = []byte{1}
	assert.True(t, tp.HasSpouse())

	d := &Dependent{FirstName: " Ann ", LastName: "Lee"}
	assert.Equal(t, "Ann Lee", d.FullName())
}
