package render

import (
	"testing"

	"github.com/facturio/facturio/model"
)

func TestResolveSignature(t *testing.T) {
	strs := localeStrings("fr")

	tests := []struct {
		name        string
		settings    model.SignatureSettings
		target      Target
		wantNil     bool
		wantCompany string // expected digital name, "" means blank line
		wantClient  string
		wantMention bool
	}{
		{
			name:     "mode none omits the zone",
			settings: model.SignatureSettings{Mode: "none", ShowCompanySignature: true},
			target:   TargetScreen,
			wantNil:  true,
		},
		{
			name:     "no party shown omits the zone",
			settings: model.SignatureSettings{Mode: "manual"},
			target:   TargetScreen,
			wantNil:  true,
		},
		{
			name: "manual is a blank line on screen",
			settings: model.SignatureSettings{
				Mode:                 "manual",
				ShowCompanySignature: true,
			},
			target: TargetScreen,
		},
		{
			name: "manual print carries the approval mention",
			settings: model.SignatureSettings{
				Mode:                "manual",
				ShowClientSignature: true,
			},
			target:      TargetPrint,
			wantClient:  "",
			wantMention: true,
		},
		{
			name: "digital shows names on both targets",
			settings: model.SignatureSettings{
				Mode:                 "digital",
				ShowCompanySignature: true,
				ShowClientSignature:  true,
			},
			target:      TargetPrint,
			wantCompany: "Facturio SARL",
			wantClient:  "Entreprise Alpha",
		},
		{
			name: "both is digital on screen",
			settings: model.SignatureSettings{
				Mode:                 "both",
				ShowCompanySignature: true,
			},
			target:      TargetScreen,
			wantCompany: "Facturio SARL",
		},
		{
			name: "both is manual in print",
			settings: model.SignatureSettings{
				Mode:                 "both",
				ShowCompanySignature: true,
				ShowClientSignature:  true,
			},
			target:      TargetPrint,
			wantMention: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block := resolveSignature(tt.settings, "Facturio SARL", "Entreprise Alpha", strs, tt.target)
			if tt.wantNil {
				if block != nil {
					t.Fatal("expected nil block")
				}
				return
			}
			if block == nil {
				t.Fatal("expected a signature block")
			}

			if tt.settings.ShowCompanySignature {
				if block.Company == nil {
					t.Fatal("company slot missing")
				}
				if block.Company.Name != tt.wantCompany {
					t.Errorf("company name = %q, want %q", block.Company.Name, tt.wantCompany)
				}
			} else if block.Company != nil {
				t.Error("company slot present but not shown")
			}

			if tt.settings.ShowClientSignature {
				if block.Client == nil {
					t.Fatal("client slot missing")
				}
				if block.Client.Name != tt.wantClient {
					t.Errorf("client name = %q, want %q", block.Client.Name, tt.wantClient)
				}
			}

			if tt.wantMention && block.Mention == "" {
				t.Error("approval mention missing")
			}
			if !tt.wantMention && block.Mention != "" {
				t.Errorf("unexpected mention %q", block.Mention)
			}
		})
	}
}

func TestSignatureDefaultTitles(t *testing.T) {
	strs := localeStrings("fr")
	block := resolveSignature(model.SignatureSettings{
		Mode:                 "manual",
		ShowCompanySignature: true,
		ShowClientSignature:  true,
	}, "A", "B", strs, TargetScreen)

	if block.Company.Title != "Directeur" {
		t.Errorf("company title = %q, want Directeur", block.Company.Title)
	}
	if block.Client.Title != "Client" {
		t.Errorf("client title = %q, want Client", block.Client.Title)
	}
}
