package extract

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swcheck/internal/types"
)

const reportDoc = `<?xml version="1.0" encoding="UTF-8"?>
<report>
  <testsequence>
    <info>
      <name>PartNumber</name>
      <description>8631234</description>
    </info>
    <teststep name="HWEL">00 1A</teststep>
    <teststep name="BTLD">0x0C</teststep>
    <teststep>readout SWFL 00 FE done</teststep>
  </testsequence>
</report>`

func writeReport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.xml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExtractReport(t *testing.T) {
	obs, err := ExtractReport(writeReport(t, reportDoc))
	require.NoError(t, err)

	assert.Equal(t, "8631234", obs.SNR)
	require.Len(t, obs.Values, 3)

	// "00 1A" is a hex byte group.
	assert.Equal(t, uint64(26), obs.Values[types.FieldHWEL].Value.Int())
	assert.Equal(t, uint64(12), obs.Values[types.FieldBTLD].Value.Int())
	// Free-text step: value follows the field token.
	assert.Equal(t, uint64(254), obs.Values[types.FieldSWFL].Value.Int())
}

func TestExtractReport_MissingFieldIsNotFatal(t *testing.T) {
	doc := `<report>
  <info><name>PartNumber</name><description>8631234</description></info>
  <teststep name="HWEL">00 1A</teststep>
</report>`

	obs, err := ExtractReport(writeReport(t, doc))
	require.NoError(t, err)

	_, haveBTLD := obs.Values[types.FieldBTLD]
	assert.False(t, haveBTLD)
	_, haveSWFL := obs.Values[types.FieldSWFL]
	assert.False(t, haveSWFL)
}

func TestExtractReport_UnparseableValueKept(t *testing.T) {
	doc := `<report>
  <info><name>PartNumber</name><description>8631234</description></info>
  <teststep name="HWEL">pending</teststep>
</report>`

	obs, err := ExtractReport(writeReport(t, doc))
	require.NoError(t, err)

	fv, ok := obs.Values[types.FieldHWEL]
	require.True(t, ok)
	assert.Error(t, fv.Err)
	assert.Equal(t, "pending", fv.Raw)
}

func TestExtractReport_NoPartNumber(t *testing.T) {
	doc := `<report><teststep name="HWEL">00 1A</teststep></report>`

	_, err := ExtractReport(writeReport(t, doc))
	assert.True(t, errors.Is(err, ErrSNRNotFound))
}

func TestExtractReport_Malformed(t *testing.T) {
	_, err := ExtractReport(writeReport(t, `<report><info>`))
	assert.True(t, errors.Is(err, ErrReportMalformed))
}

func TestExtractReport_EntityInputRejected(t *testing.T) {
	// Strict parsing refuses undefined entities instead of expanding
	// anything; external entities are never resolved by encoding/xml.
	doc := `<!DOCTYPE report [<!ENTITY x SYSTEM "file:///etc/hostname">]>
<report>
  <info><name>PartNumber</name><description>&x;</description></info>
</report>`

	_, err := ExtractReport(writeReport(t, doc))
	assert.True(t, errors.Is(err, ErrReportMalformed))
}
