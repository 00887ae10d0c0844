// pkg/registry/extractor.go
package registry

import (
	"github.com/David-Botos/trial-ingress/pkg/model"
)

// Study is one raw study object as decoded from the registry JSON
type Study = map[string]interface{}

// StudyLists holds the list-valued fields of a study before serialization
type StudyLists struct {
	Conditions    []string
	Interventions []string // index-aligned with arm groups
	Phases        []string
}

// ExtractStudy flattens a raw study into a RawTrialRecord.
// Every nested access is optional: a missing section, a missing key or a value
// of an unexpected JSON type yields the zero value instead of failing.
func ExtractStudy(study Study) model.RawTrialRecord {
	lists := ExtractLists(study)
	return ExtractScalars(study).WithLists(lists.Conditions, lists.Interventions, lists.Phases)
}

// ExtractScalars fills the single-valued attributes only; list fields stay empty
func ExtractScalars(study Study) model.RawTrialRecord {
	protocol := object(study, "protocolSection")
	identification := object(protocol, "identificationModule")
	status := object(protocol, "statusModule")
	design := object(protocol, "designModule")
	eligibility := object(protocol, "eligibilityModule")

	return model.RawTrialRecord{
		NCTID:              str(identification, "nctId"),
		BriefTitle:         str(identification, "briefTitle"),
		OfficialTitle:      str(identification, "officialTitle"),
		OverallStatus:      str(status, "overallStatus"),
		StudyFirstPostDate: str(object(status, "studyFirstPostDateStruct"), "date"),
		LastUpdatePostDate: str(object(status, "lastUpdatePostDateStruct"), "date"),
		StudyType:          str(design, "studyType"),
		Sex:                str(eligibility, "sex"),
		MinimumAge:         str(eligibility, "minimumAge"),
		MaximumAge:         str(eligibility, "maximumAge"),
	}
}

// ExtractLists returns the list-valued attributes of a study
func ExtractLists(study Study) StudyLists {
	protocol := object(study, "protocolSection")
	return StudyLists{
		Conditions:    strList(object(protocol, "conditionsModule"), "conditions"),
		Interventions: ArmGroupInterventions(study),
		Phases:        strList(object(protocol, "designModule"), "phases"),
	}
}

// ArmGroupInterventions projects each arm group to its first intervention
// name, or "" when it lists none. The result is index-aligned with the arm
// groups, so its length always equals the number of arm groups.
func ArmGroupInterventions(study Study) []string {
	arms := object(object(study, "protocolSection"), "armsInterventionsModule")
	groups := list(arms, "armGroups")

	out := make([]string, len(groups))
	for i, g := range groups {
		group, _ := g.(map[string]interface{})
		names := strList(group, "interventionNames")
		if len(names) > 0 {
			out[i] = names[0]
		}
	}
	return out
}

func object(m map[string]interface{}, key string) map[string]interface{} {
	if m == nil {
		return nil
	}
	v, _ := m[key].(map[string]interface{})
	return v
}

func str(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	v, _ := m[key].(string)
	return v
}

func list(m map[string]interface{}, key string) []interface{} {
	if m == nil {
		return nil
	}
	v, _ := m[key].([]interface{})
	return v
}

// strList keeps the string elements of a JSON array, in order
func strList(m map[string]interface{}, key string) []string {
	raw := list(m, key)
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
