// pkg/model/trial.go
package model

import "strings"

// ComponentDelimiter separates the elements of list-valued fields when a
// record is flattened for storage. It must never appear inside an element.
const ComponentDelimiter = "|"

// RawTrialRecord is one clinical study as flattened from the registry response
type RawTrialRecord struct {
	NCTID              string `db:"nctId" json:"nctId"`
	BriefTitle         string `db:"briefTitle" json:"briefTitle"`
	OfficialTitle      string `db:"officialTitle" json:"officialTitle"`
	OverallStatus      string `db:"overallStatus" json:"overallStatus"`
	Conditions         string `db:"conditions" json:"conditions"`       // ComponentDelimiter joined
	Interventions      string `db:"interventions" json:"interventions"` // one entry per arm group
	StudyFirstPostDate string `db:"studyFirstPostDate" json:"studyFirstPostDate"`
	LastUpdatePostDate string `db:"lastUpdatePostDate" json:"lastUpdatePostDate"`
	Phases             string `db:"phases" json:"phases"`
	StudyType          string `db:"studyType" json:"studyType"`
	Sex                string `db:"sex" json:"sex"`
	MinimumAge         string `db:"minimumAge" json:"minimumAge"`
	MaximumAge         string `db:"maximumAge" json:"maximumAge"`
}

// Values returns the record attributes in RawColumns order
func (r RawTrialRecord) Values() []interface{} {
	return []interface{}{
		r.NCTID,
		r.BriefTitle,
		r.OfficialTitle,
		r.OverallStatus,
		r.Conditions,
		r.Interventions,
		r.StudyFirstPostDate,
		r.LastUpdatePostDate,
		r.Phases,
		r.StudyType,
		r.Sex,
		r.MinimumAge,
		r.MaximumAge,
	}
}

// ConditionList returns the de-serialized conditions
func (r RawTrialRecord) ConditionList() []string {
	return SplitComponents(r.Conditions)
}

// InterventionList returns the de-serialized interventions, index-aligned with arm groups
func (r RawTrialRecord) InterventionList() []string {
	return SplitComponents(r.Interventions)
}

// PhaseList returns the de-serialized phases
func (r RawTrialRecord) PhaseList() []string {
	return SplitComponents(r.Phases)
}

// WithLists returns a copy of the record with the list fields serialized
func (r RawTrialRecord) WithLists(conditions, interventions, phases []string) RawTrialRecord {
	r.Conditions = JoinComponents(conditions)
	r.Interventions = JoinComponents(interventions)
	r.Phases = JoinComponents(phases)
	return r
}

// TransformedTrialRecord is a raw record after the transform stage.
// InterventionsArray holds a JSON array of intervention names.
type TransformedTrialRecord struct {
	RawTrialRecord
	InterventionsArray string `db:"interventionsArray" json:"interventionsArray"`
}

// Values returns the record attributes in TransformedTableMetadata order
func (r TransformedTrialRecord) Values() []interface{} {
	return append(r.RawTrialRecord.Values(), r.InterventionsArray)
}

// InferredTrialRecord is a transformed record enriched with the classifier output
type InferredTrialRecord struct {
	RawTrialRecord
	ContainsChemo bool `db:"contains_chemo" json:"containsChemo"`
}

// Values returns the record attributes in InferredTableMetadata order
func (r InferredTrialRecord) Values() []interface{} {
	return append(r.RawTrialRecord.Values(), r.ContainsChemo)
}

// JoinComponents serializes a list field with ComponentDelimiter
func JoinComponents(parts []string) string {
	return strings.Join(parts, ComponentDelimiter)
}

// SplitComponents de-serializes a list field. An empty string yields an empty list.
func SplitComponents(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ComponentDelimiter)
}
