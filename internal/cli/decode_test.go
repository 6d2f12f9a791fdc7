package cli

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/yairfalse/etwparse/pkg/etwtest"
	"github.com/yairfalse/etwparse/pkg/ser"
)

func writeDNSCapture(t *testing.T) string {
	t.Helper()
	payload := etwtest.NewRecord().UTF16Z("www.github.com").Uint32(0).Build().UserData
	doc := fmt.Sprintf(`[
  {
    "schema": {
      "provider_guid": "1c95126e-7eea-49a9-a3fe-a378b03ddb4d",
      "event_id": 3008,
      "version": 0,
      "provider": "Microsoft-Windows-DNS-Client",
      "task": "DNSQuery",
      "opcode": "Completed",
      "fields": [
        {"name": "QueryName", "in_type": 1, "out_type": 1},
        {"name": "QueryStatus", "in_type": 8}
      ]
    },
    "header": {"process_id": 4321, "timestamp": "2023-08-17T09:26:39Z"},
    "payload": %q
  }
]`, hex.EncodeToString(payload))

	path := filepath.Join(t.TempDir(), "dns.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestRunDecode(t *testing.T) {
	path := writeDNSCapture(t)
	var out bytes.Buffer
	opts := ser.DefaultOptions()
	require.NoError(t, runDecode(path, opts, zaptest.NewLogger(t), &out))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	require.Len(t, decoded, 1)

	event, ok := decoded[0]["Event"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "www.github.com", event["QueryName"])
	assert.Equal(t, float64(0), event["QueryStatus"])

	sch, ok := decoded[0]["Schema"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Microsoft-Windows-DNS-Client", sch["Provider"])
}

func TestRunDecodeWithoutBlocks(t *testing.T) {
	path := writeDNSCapture(t)
	var out bytes.Buffer
	require.NoError(t, runDecode(path, ser.Options{}, zaptest.NewLogger(t), &out))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.NotContains(t, decoded[0], "Schema")
	assert.NotContains(t, decoded[0], "Header")
	assert.Contains(t, decoded[0], "Event")
}

func TestRunDecodeMissingFile(t *testing.T) {
	err := runDecode(filepath.Join(t.TempDir(), "absent.json"), ser.DefaultOptions(), zaptest.NewLogger(t), &bytes.Buffer{})
	require.Error(t, err)
}
