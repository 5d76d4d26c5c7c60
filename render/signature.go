package render

import "github.com/facturio/facturio/model"

const (
	defaultCompanyTitle = "Directeur"
	defaultClientTitle  = "Client"
)

// resolveSignature turns the stored signature settings into the block a
// target renders, or nil when the zone is omitted.
//
// Mode rules:
//   - "none": no block, regardless of the show flags.
//   - "manual": blank signing line for every shown party.
//   - "digital": the signer name is printed for every shown party.
//   - "both": digital on screen, manual in print.
//
// The print target additionally carries the approval mention when the
// client slot is shown.
func resolveSignature(s model.SignatureSettings, companyName, clientName string, strs stringTable, target Target) *SignatureBlock {
	if s.Mode == "none" || s.Mode == "" {
		return nil
	}
	if !s.ShowCompanySignature && !s.ShowClientSignature {
		return nil
	}

	digital := s.Mode == "digital" || (s.Mode == "both" && target == TargetScreen)

	block := &SignatureBlock{}
	if s.ShowCompanySignature {
		p := &SignatureParty{Title: s.CompanySignerTitle}
		if p.Title == "" {
			p.Title = defaultCompanyTitle
		}
		if digital {
			p.Name = companyName
		}
		block.Company = p
	}
	if s.ShowClientSignature {
		p := &SignatureParty{Title: s.ClientSignerTitle}
		if p.Title == "" {
			p.Title = defaultClientTitle
		}
		if digital {
			p.Name = clientName
		}
		block.Client = p
	}

	if target == TargetPrint && block.Client != nil && !digital {
		block.Mention = strs.ReadApproved
	}
	return block
}
