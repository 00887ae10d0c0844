// pkg/validation/gold.go
package validation

// GoldLabel is a manually verified classification of one trial
type GoldLabel struct {
	NCTID         string
	Expected      bool   // true when the trial contains chemotherapy
	Interventions string // aggregated intervention text the label was judged on
}

var goldPositive = [...]GoldLabel{
	{"NCT04233866", true, "Drug: Gemcitabine, Drug: Fluorouracil"},
	{"NCT00942331", true, "Drug: Cisplatin, Biological: Bevacizumab"},
	{"NCT06132958", true, "Biological: Sacituzumab tirumotecan, Drug: Doxorubicin"},
	{"NCT02973789", true, "Device: NovoTTF-200T, Drug: Immune checkpoint inhibitors or docetaxel"},
	{"NCT05567601", true, "Drug: DOXIL/CAELYX, Drug: DOXIL/CAELYX"},
	{"NCT05040360", true, "Drug: Capecitabine"},
	{"NCT05610163", true, "Drug: Capecitabine, Drug: Capecitabine"},
	{"NCT02166463", true, "Biological: Bleomycin Sulfate, Drug: Brentuximab Vedotin"},
	{"NCT02339740", true, "Drug: Arsenic Trioxide"},
	{"NCT02112916", true, "Drug: Cyclophosphamide, Drug: Bortezomib"},
}

var goldNegative = [...]GoldLabel{
	{"NCT02641639", false, "Drug: Fosbretabulin tromethamine, Drug: Placebo"},
	{"NCT03375320", false, "Drug: Cabozantinib S-malate, Procedure: Computed Tomography"},
	{"NCT05705401", false, "Radiation: Standard of Care Adjuvant Breast Radiation, Drug: Standard of Care HER2-targeted Therapy Without Adjuvant Breast Radiation"},
	{"NCT00379340", false, "Radiation: 3-Dimensional Conformal Radiation Therapy"},
	{"NCT05204927", false, "Drug: Abiraterone with Prednisone or Enzalutamide, Drug: 177Lu-PSMA-I&T"},
	{"NCT04134260", false, "Drug: Hormone Therapy, Drug: Apalutamide"},
	{"NCT02893930", false, "Drug: Sapanisertib"},
	{"NCT01575548", false, "Procedure: Computed Tomography, Procedure: Computed Tomography"},
	{"NCT03033576", false, "Biological: Ipilimumab, Biological: Ipilimumab"},
	{"NCT01901094", false, "Procedure: Axillary Lymph Node Dissection (ALND), Radiation: Nodal Radiation Therapy"},
}

// PositiveGold returns a copy of the labels expected to contain chemotherapy
func PositiveGold() []GoldLabel {
	return append([]GoldLabel(nil), goldPositive[:]...)
}

// NegativeGold returns a copy of the labels expected not to contain chemotherapy
func NegativeGold() []GoldLabel {
	return append([]GoldLabel(nil), goldNegative[:]...)
}

// GoldIDs returns every gold nctId, positives first
func GoldIDs() []string {
	ids := make([]string, 0, len(goldPositive)+len(goldNegative))
	for _, g := range goldPositive {
		ids = append(ids, g.NCTID)
	}
	for _, g := range goldNegative {
		ids = append(ids, g.NCTID)
	}
	return ids
}
