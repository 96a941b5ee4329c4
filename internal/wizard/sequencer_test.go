package wizard_test

import (
	"testing"

	"github.com/sweetcrumbs/storefront/internal/wizard"
)

func TestTotalSteps_NoTiers(t *testing.T) {
	if got := wizard.TotalSteps(0); got != 2 {
		t.Errorf("TotalSteps(0): got %d, want 2", got)
	}
}

func TestTotalSteps_GrowsByTwoPerTier(t *testing.T) {
	for n := 1; n < 6; n++ {
		diff := wizard.TotalSteps(n+1) - wizard.TotalSteps(n)
		if diff != 2 {
			t.Errorf("TotalSteps(%d)-TotalSteps(%d): got %d, want 2", n+1, n, diff)
		}
	}
}

func TestLandmarkSteps(t *testing.T) {
	tests := []struct {
		tiers                                 int
		covering, image, note, delivery, conf int
	}{
		{1, 5, 6, 7, 8, 9},
		{2, 7, 8, 9, 10, 11},
		{6, 15, 16, 17, 18, 19},
	}
	for _, tt := range tests {
		if got := wizard.CoveringStep(tt.tiers); got != tt.covering {
			t.Errorf("CoveringStep(%d): got %d, want %d", tt.tiers, got, tt.covering)
		}
		if got := wizard.ImageStep(tt.tiers); got != tt.image {
			t.Errorf("ImageStep(%d): got %d, want %d", tt.tiers, got, tt.image)
		}
		if got := wizard.NoteStep(tt.tiers); got != tt.note {
			t.Errorf("NoteStep(%d): got %d, want %d", tt.tiers, got, tt.note)
		}
		if got := wizard.DeliveryStep(tt.tiers); got != tt.delivery {
			t.Errorf("DeliveryStep(%d): got %d, want %d", tt.tiers, got, tt.delivery)
		}
		if got := wizard.ConfirmStep(tt.tiers); got != tt.conf {
			t.Errorf("ConfirmStep(%d): got %d, want %d", tt.tiers, got, tt.conf)
		}
		if got := wizard.TotalSteps(tt.tiers); got != tt.conf {
			t.Errorf("TotalSteps(%d): got %d, want %d", tt.tiers, got, tt.conf)
		}
	}
}

func TestLocate(t *testing.T) {
	tests := []struct {
		name  string
		tiers int
		step  int
		want  wizard.Position
	}{
		{"shape", 2, 1, wizard.Position{Screen: wizard.ScreenShape, Tier: -1}},
		{"tier count", 2, 2, wizard.Position{Screen: wizard.ScreenTierCount, Tier: -1}},
		{"tier 1 flavor count", 2, 3, wizard.Position{Screen: wizard.ScreenTier, Tier: 0, SubStep: wizard.SubStepFlavorCount}},
		{"tier 1 flavors", 2, 4, wizard.Position{Screen: wizard.ScreenTier, Tier: 0, SubStep: wizard.SubStepFlavorsAndSize}},
		{"tier 2 flavor count", 2, 5, wizard.Position{Screen: wizard.ScreenTier, Tier: 1, SubStep: wizard.SubStepFlavorCount}},
		{"tier 2 flavors", 2, 6, wizard.Position{Screen: wizard.ScreenTier, Tier: 1, SubStep: wizard.SubStepFlavorsAndSize}},
		{"covering", 2, 7, wizard.Position{Screen: wizard.ScreenCovering, Tier: -1}},
		{"image", 2, 8, wizard.Position{Screen: wizard.ScreenImage, Tier: -1}},
		{"note", 2, 9, wizard.Position{Screen: wizard.ScreenNote, Tier: -1}},
		{"delivery", 2, 10, wizard.Position{Screen: wizard.ScreenDelivery, Tier: -1}},
		{"confirm", 2, 11, wizard.Position{Screen: wizard.ScreenConfirm, Tier: -1}},
		{"past the end", 2, 12, wizard.Position{Screen: wizard.ScreenInvalid, Tier: -1}},
		{"zero", 2, 0, wizard.Position{Screen: wizard.ScreenInvalid, Tier: -1}},
		{"no tiers yet", 0, 3, wizard.Position{Screen: wizard.ScreenInvalid, Tier: -1}},
		{"last tier of six", 6, 14, wizard.Position{Screen: wizard.ScreenTier, Tier: 5, SubStep: wizard.SubStepFlavorsAndSize}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wizard.Locate(tt.tiers, tt.step)
			if got != tt.want {
				t.Errorf("Locate(%d, %d): got %+v, want %+v", tt.tiers, tt.step, got, tt.want)
			}
		})
	}
}
