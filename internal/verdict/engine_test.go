package verdict

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swcheck/internal/normalize"
	"swcheck/internal/types"
)

func fieldValue(t *testing.T, raw string) types.FieldValue {
	t.Helper()
	v, err := normalize.Normalize(raw, normalize.FormatAuto)
	require.NoError(t, err, "raw=%q", raw)
	return types.FieldValue{Raw: raw, Value: v}
}

func badValue(raw string) types.FieldValue {
	_, err := normalize.Normalize(raw, normalize.FormatAuto)
	return types.FieldValue{Raw: raw, Err: err}
}

func reference(t *testing.T, values map[types.ComponentField]string) *types.ReferenceRecord {
	t.Helper()
	ref := &types.ReferenceRecord{SNR: "8631234", Values: map[types.ComponentField]types.FieldValue{}}
	for f, raw := range values {
		ref.Values[f] = fieldValue(t, raw)
	}
	return ref
}

func observed(t *testing.T, values map[types.ComponentField]string) *types.ObservedRecord {
	t.Helper()
	obs := &types.ObservedRecord{SNR: "8631234", Values: map[types.ComponentField]types.FieldValue{}}
	for f, raw := range values {
		obs.Values[f] = fieldValue(t, raw)
	}
	return obs
}

func TestEvaluate_AllMatchIsOK(t *testing.T) {
	ref := reference(t, map[types.ComponentField]string{
		types.FieldHWEL: "0x1A", types.FieldBTLD: "12", types.FieldSWFL: "0xFF",
	})
	obs := observed(t, map[types.ComponentField]string{
		types.FieldHWEL: "26", types.FieldBTLD: "0x0C", types.FieldSWFL: "255",
	})

	v := Evaluate(ref, obs, types.Fields())

	assert.Equal(t, types.VerdictOK, v.Overall)
	for _, fv := range v.Fields {
		assert.True(t, fv.Match, "field %s", fv.Field)
		assert.Equal(t, types.ReasonMatch, fv.Reason)
	}
}

// Reference {HWEL: 0x1A, BTLD: 12, SWFL: 0xFF} against observed
// {HWEL: 26, BTLD: 0x0C, SWFL: 254}: HWEL and BTLD match across radixes,
// SWFL differs by one, overall NOK.
func TestEvaluate_MixedRadixScenario(t *testing.T) {
	ref := reference(t, map[types.ComponentField]string{
		types.FieldHWEL: "0x1A", types.FieldBTLD: "12", types.FieldSWFL: "0xFF",
	})
	obs := observed(t, map[types.ComponentField]string{
		types.FieldHWEL: "26", types.FieldBTLD: "0x0C", types.FieldSWFL: "254",
	})

	v := Evaluate(ref, obs, types.Fields())

	want := []types.FieldVerdict{
		{Field: types.FieldHWEL, Expected: "0x1A", Observed: "0x1A", Match: true, Reason: types.ReasonMatch},
		{Field: types.FieldBTLD, Expected: "0xC", Observed: "0xC", Match: true, Reason: types.ReasonMatch},
		{Field: types.FieldSWFL, Expected: "0xFF", Observed: "0xFE", Match: false, Reason: types.ReasonMismatch},
	}
	if diff := cmp.Diff(want, v.Fields); diff != "" {
		t.Errorf("field verdicts mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, types.VerdictNOK, v.Overall)
}

func TestEvaluate_SingleMismatchFlipsOverall(t *testing.T) {
	values := map[types.ComponentField]string{
		types.FieldHWEL: "1", types.FieldBTLD: "2", types.FieldSWFL: "3",
	}
	for _, broken := range types.Fields() {
		ref := reference(t, values)
		obs := observed(t, values)
		obs.Values[broken] = fieldValue(t, "99")

		v := Evaluate(ref, obs, types.Fields())

		assert.Equal(t, types.VerdictNOK, v.Overall, "broken field %s", broken)
		mismatches := 0
		for _, fv := range v.Fields {
			if fv.Reason == types.ReasonMismatch {
				mismatches++
				assert.Equal(t, broken, fv.Field)
			}
		}
		assert.Equal(t, 1, mismatches)
	}
}

func TestEvaluate_MissingSides(t *testing.T) {
	ref := reference(t, map[types.ComponentField]string{
		types.FieldHWEL: "0x1A", types.FieldBTLD: "12",
	})
	obs := observed(t, map[types.ComponentField]string{
		types.FieldHWEL: "26", types.FieldSWFL: "255",
	})

	v := Evaluate(ref, obs, types.Fields())
	require.Len(t, v.Fields, 3)

	byField := map[types.ComponentField]types.FieldVerdict{}
	for _, fv := range v.Fields {
		byField[fv.Field] = fv
	}

	assert.Equal(t, types.ReasonMatch, byField[types.FieldHWEL].Reason)
	assert.Equal(t, types.ReasonMissingObserved, byField[types.FieldBTLD].Reason)
	assert.Equal(t, types.ReasonMissingExpected, byField[types.FieldSWFL].Reason)
	assert.Equal(t, types.VerdictNOK, v.Overall)
}

func TestEvaluate_UnparseableCountsAsFailure(t *testing.T) {
	ref := reference(t, map[types.ComponentField]string{types.FieldHWEL: "0x1A"})
	obs := &types.ObservedRecord{Values: map[types.ComponentField]types.FieldValue{
		types.FieldHWEL: badValue("N/A"),
	}}

	v := Evaluate(ref, obs, []types.ComponentField{types.FieldHWEL})

	require.Len(t, v.Fields, 1)
	assert.Equal(t, types.ReasonUnparseable, v.Fields[0].Reason)
	assert.False(t, v.Fields[0].Match)
	assert.Equal(t, "N/A", v.Fields[0].Observed)
	assert.Equal(t, types.VerdictNOK, v.Overall)
}

func TestEvaluate_FieldOrderIsStable(t *testing.T) {
	ref := reference(t, map[types.ComponentField]string{
		types.FieldHWEL: "1", types.FieldBTLD: "2", types.FieldSWFL: "3",
	})
	obs := observed(t, map[types.ComponentField]string{
		types.FieldHWEL: "1", types.FieldBTLD: "2", types.FieldSWFL: "3",
	})

	for i := 0; i < 5; i++ {
		v := Evaluate(ref, obs, types.Fields())
		require.Len(t, v.Fields, 3)
		assert.Equal(t, types.FieldHWEL, v.Fields[0].Field)
		assert.Equal(t, types.FieldBTLD, v.Fields[1].Field)
		assert.Equal(t, types.FieldSWFL, v.Fields[2].Field)
	}
}
