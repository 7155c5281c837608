// Package verdict compares observed values against reference values and
// aggregates the per-field results into an overall OK/NOK outcome.
package verdict

import (
	"time"

	"swcheck/internal/types"
)

// Evaluate produces one FieldVerdict per field, in the given order, and the
// aggregated overall verdict. It is pure: no storage, no notification, no
// clock beyond the timestamp stamped by the caller into the final record.
//
// Per-field rules:
//   - both present and normalized integers equal        -> match
//   - both present, not equal                           -> mismatch
//   - present in reference, absent in observed          -> missing-observed
//   - absent in reference                               -> missing-expected
//   - present on either side but failed normalization   -> unparseable
func Evaluate(ref *types.ReferenceRecord, obs *types.ObservedRecord, fields []types.ComponentField) types.CheckVerdict {
	verdicts := make([]types.FieldVerdict, 0, len(fields))
	overall := types.VerdictOK

	for _, f := range fields {
		fv := evaluateField(f, ref, obs)
		if !fv.Match {
			overall = types.VerdictNOK
		}
		verdicts = append(verdicts, fv)
	}

	return types.CheckVerdict{
		SNR:       ref.SNR,
		Timestamp: time.Time{}, // stamped by the caller
		Fields:    verdicts,
		Overall:   overall,
	}
}

func evaluateField(f types.ComponentField, ref *types.ReferenceRecord, obs *types.ObservedRecord) types.FieldVerdict {
	expected, haveExpected := ref.Values[f]
	observed, haveObserved := obs.Values[f]

	fv := types.FieldVerdict{Field: f}
	if haveExpected {
		fv.Expected = expected.Display()
	}
	if haveObserved {
		fv.Observed = observed.Display()
	}

	switch {
	case !haveExpected:
		fv.Reason = types.ReasonMissingExpected
	case !haveObserved:
		fv.Reason = types.ReasonMissingObserved
	case expected.Err != nil || observed.Err != nil:
		fv.Reason = types.ReasonUnparseable
	case expected.Value.Equal(observed.Value):
		fv.Match = true
		fv.Reason = types.ReasonMatch
	default:
		fv.Reason = types.ReasonMismatch
	}
	return fv
}
