package registry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Botos/trial-ingress/pkg/model"
)

const fullStudyJSON = `{
  "protocolSection": {
    "identificationModule": {
      "nctId": "NCT04233866",
      "briefTitle": "Gemcitabine Study",
      "officialTitle": "A Phase II Study of Gemcitabine"
    },
    "statusModule": {
      "overallStatus": "RECRUITING",
      "studyFirstPostDateStruct": {"date": "2020-01-18", "type": "ACTUAL"},
      "lastUpdatePostDateStruct": {"date": "2024-03-01"}
    },
    "conditionsModule": {"conditions": ["Pancreatic Cancer", "Metastatic Pancreatic Adenocarcinoma"]},
    "armsInterventionsModule": {
      "armGroups": [
        {"label": "A", "interventionNames": ["Drug: Gemcitabine", "Drug: Fluorouracil"]},
        {"label": "B"},
        {"label": "C", "interventionNames": ["Drug: Fluorouracil"]}
      ]
    },
    "designModule": {"studyType": "INTERVENTIONAL", "phases": ["PHASE1", "PHASE2"]},
    "eligibilityModule": {"sex": "ALL", "minimumAge": "18 Years", "maximumAge": "75 Years"}
  }
}`

func decodeStudy(t *testing.T, raw string) Study {
	t.Helper()
	var s Study
	require.NoError(t, json.Unmarshal([]byte(raw), &s))
	return s
}

func TestExtractStudy_Full(t *testing.T) {
	rec := ExtractStudy(decodeStudy(t, fullStudyJSON))

	assert.Equal(t, model.RawTrialRecord{
		NCTID:              "NCT04233866",
		BriefTitle:         "Gemcitabine Study",
		OfficialTitle:      "A Phase II Study of Gemcitabine",
		OverallStatus:      "RECRUITING",
		Conditions:         "Pancreatic Cancer|Metastatic Pancreatic Adenocarcinoma",
		Interventions:      "Drug: Gemcitabine||Drug: Fluorouracil",
		StudyFirstPostDate: "2020-01-18",
		LastUpdatePostDate: "2024-03-01",
		Phases:             "PHASE1|PHASE2",
		StudyType:          "INTERVENTIONAL",
		Sex:                "ALL",
		MinimumAge:         "18 Years",
		MaximumAge:         "75 Years",
	}, rec)
}

func TestExtractStudy_MissingSections(t *testing.T) {
	cases := map[string]string{
		"empty object":          `{}`,
		"empty protocol":        `{"protocolSection": {}}`,
		"protocol wrong type":   `{"protocolSection": []}`,
		"modules wrong type":    `{"protocolSection": {"statusModule": "x", "designModule": 3, "armsInterventionsModule": {"armGroups": {}}}}`,
		"list elements invalid": `{"protocolSection": {"conditionsModule": {"conditions": [1, null]}}}`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			var rec model.RawTrialRecord
			require.NotPanics(t, func() { rec = ExtractStudy(decodeStudy(t, raw)) })
			assert.Equal(t, model.RawTrialRecord{}, rec)
		})
	}
}

func TestExtractStudy_OnlyIdentifier(t *testing.T) {
	rec := ExtractStudy(decodeStudy(t, `{"protocolSection": {"identificationModule": {"nctId": "NCT00000001"}}}`))
	assert.Equal(t, model.RawTrialRecord{NCTID: "NCT00000001"}, rec)
}

func TestExtractStudy_NilStudy(t *testing.T) {
	assert.Equal(t, model.RawTrialRecord{}, ExtractStudy(nil))
}

func TestArmGroupInterventions_LengthPreserved(t *testing.T) {
	for n := 0; n < 6; n++ {
		groups := make([]interface{}, n)
		for i := range groups {
			if i%2 == 0 {
				groups[i] = map[string]interface{}{"interventionNames": []interface{}{"Drug: X", "Drug: Y"}}
			} else {
				groups[i] = map[string]interface{}{"label": "no interventions"}
			}
		}
		study := Study{"protocolSection": map[string]interface{}{
			"armsInterventionsModule": map[string]interface{}{"armGroups": groups},
		}}

		got := ArmGroupInterventions(study)
		require.Len(t, got, n)
		for i, v := range got {
			if i%2 == 0 {
				assert.Equal(t, "Drug: X", v)
			} else {
				assert.Empty(t, v)
			}
		}
	}
}

func TestArmGroupInterventions_EmptyNamesAndInvalidGroups(t *testing.T) {
	study := decodeStudy(t, `{"protocolSection": {"armsInterventionsModule": {"armGroups": [
		{"interventionNames": []},
		"not an object",
		{"interventionNames": ["Biological: Ipilimumab"]}
	]}}}`)

	assert.Equal(t, []string{"", "", "Biological: Ipilimumab"}, ArmGroupInterventions(study))
}

func TestExtractStudy_ListRoundTrip(t *testing.T) {
	rec := ExtractStudy(decodeStudy(t, fullStudyJSON))

	assert.Equal(t, []string{"Pancreatic Cancer", "Metastatic Pancreatic Adenocarcinoma"}, rec.ConditionList())
	assert.Equal(t, []string{"Drug: Gemcitabine", "", "Drug: Fluorouracil"}, rec.InterventionList())
	assert.Equal(t, []string{"PHASE1", "PHASE2"}, rec.PhaseList())
}
