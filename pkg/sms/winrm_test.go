package sms

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

type call struct {
	script string
	stdin  string
}

type fakeRunner struct {
	calls    []call
	stdout   string
	stderr   string
	exitCode int
	err      error
}

func (f *fakeRunner) RunWithContextWithString(_ context.Context, command string, stdin string) (string, string, int, error) {
	f.calls = append(f.calls, call{script: decodeCommand(command), stdin: stdin})
	return f.stdout, f.stderr, f.exitCode, f.err
}

func decodeCommand(command string) string {
	idx := strings.LastIndex(command, " ")
	raw, err := base64.StdEncoding.DecodeString(command[idx+1:])
	if err != nil {
		return ""
	}
	utf16 := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	script, err := utf16.NewDecoder().Bytes(raw)
	if err != nil {
		return ""
	}
	return string(script)
}

func newTestScope(r *fakeRunner) *WinRMScope {
	return &WinRMScope{runner: r, namespace: `root\sms\site_PS1`}
}

func TestEncodeCommand_RoundTrip(t *testing.T) {
	cmd, err := encodeCommand("Write-Output 'hello'")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(cmd, "powershell -NoProfile"))
	assert.Equal(t, "Write-Output 'hello'", decodeCommand(cmd))
}

func TestNewWinRMScope_RequiresHostAndNamespace(t *testing.T) {
	_, err := NewWinRMScope(WinRMConfig{Namespace: `root\sms\site_PS1`})
	assert.Error(t, err)

	_, err = NewWinRMScope(WinRMConfig{Host: "cm01"})
	assert.Error(t, err)
}

func TestPutInventoryClass_SendsRequestOnStdin(t *testing.T) {
	r := &fakeRunner{}
	s := newTestScope(r)

	class := &InventoryClass{
		SMSClassID:   "X1",
		ClassName:    "PMPC_UserApps",
		SMSGroupName: "User Apps",
		Namespace:    DefaultNamespace,
		IsDeletable:  true,
		Properties: []InventoryClassProperty{
			{PropertyName: "Key", Type: StringType, Width: DefaultPropertyWidth, IsKey: true},
		},
	}
	require.NoError(t, s.PutInventoryClass(context.Background(), class))
	require.Len(t, r.calls, 1)

	script := r.calls[0].script
	assert.Contains(t, script, `$ns = 'root\sms\site_PS1'`)
	assert.Contains(t, script, "-ClassName SMS_InventoryClass ")
	assert.Contains(t, script, "-ClassName SMS_InventoryClassProperty -ClientOnly")

	var sent InventoryClass
	require.NoError(t, json.Unmarshal([]byte(r.calls[0].stdin), &sent))
	assert.Equal(t, *class, sent)
}

func TestFindInventoryClass_EmptyOutputIsNotFound(t *testing.T) {
	r := &fakeRunner{stdout: "\r\n"}
	s := newTestScope(r)

	class, err := s.FindInventoryClass(context.Background(), "X1")
	assert.Nil(t, class)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindInventoryClass_DecodesResponse(t *testing.T) {
	r := &fakeRunner{stdout: `{"SMSClassID":"X1","ClassName":"Apps","SMSGroupName":"G","Namespace":"ns","IsDeletable":true,"Properties":[{"PropertyName":"Key","Type":8,"Width":2048,"IsKey":true}]}`}
	s := newTestScope(r)

	class, err := s.FindInventoryClass(context.Background(), "X1")
	require.NoError(t, err)
	assert.Equal(t, "X1", class.SMSClassID)
	require.Len(t, class.Properties, 1)
	assert.True(t, class.Properties[0].IsKey)
	assert.JSONEq(t, `{"SMSClassID":"X1","ClassName":"","SMSGroupName":"","Namespace":"","IsDeletable":false,"Properties":null}`, r.calls[0].stdin)
}

func TestGetInventoryReport_UsesReportClass(t *testing.T) {
	r := &fakeRunner{stdout: `{"InventoryReportID":"{00000000-0000-0000-0000-000000000001}","ReportClasses":[{"SMSClassID":"A","ReportProperties":["Name"],"Timeout":6000}]}`}
	s := newTestScope(r)

	report, err := s.GetInventoryReport(context.Background(), HardwareInventoryReportID)
	require.NoError(t, err)
	assert.Equal(t, HardwareInventoryReportID, report.InventoryReportID)
	assert.Equal(t, []InventoryReportClass{{SMSClassID: "A", ReportProperties: []string{"Name"}, Timeout: 6000}}, report.ReportClasses)
	assert.Contains(t, r.calls[0].script, "-ClassName SMS_InventoryReport ")
}

func TestPutInventoryReport_BuildsReportClasses(t *testing.T) {
	r := &fakeRunner{}
	s := newTestScope(r)

	report := &InventoryReport{
		InventoryReportID: HardwareInventoryReportID,
		ReportClasses:     []InventoryReportClass{{SMSClassID: "A", ReportProperties: []string{"Name"}, Timeout: DefaultReportTimeout}},
	}
	require.NoError(t, s.PutInventoryReport(context.Background(), report))
	assert.Contains(t, r.calls[0].script, "-ClassName SMS_InventoryReportClass -ClientOnly")
	assert.Contains(t, r.calls[0].script, "Set-CimInstance -InputObject $r")
}

func TestRun_NonZeroExitIsRemoteError(t *testing.T) {
	r := &fakeRunner{exitCode: 1, stderr: "Access denied\r\n"}
	s := newTestScope(r)

	err := s.DeleteInventoryClass(context.Background(), &InventoryClass{SMSClassID: "X1"})
	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, "DeleteInventoryClass", remoteErr.Op)
	assert.Equal(t, 1, remoteErr.ExitCode)
	assert.Equal(t, "Access denied", remoteErr.Stderr)
}

func TestRun_TransportErrorIsWrapped(t *testing.T) {
	cause := errors.New("connection refused")
	r := &fakeRunner{err: cause}
	s := newTestScope(r)

	_, err := s.GetInventoryReport(context.Background(), HardwareInventoryReportID)
	assert.ErrorIs(t, err, cause)
}

func TestRun_RequestTravelsOnStdinNotCommandLine(t *testing.T) {
	r := &fakeRunner{}
	s := newTestScope(r)

	report := &InventoryReport{InventoryReportID: HardwareInventoryReportID}
	for i := 0; i < 500; i++ {
		report.ReportClasses = append(report.ReportClasses, InventoryReportClass{
			SMSClassID:       "MICROSOFT|SOME_LONG_CLASS_NAME|1.0",
			ReportProperties: []string{"Caption", "Description", "InstallDate", "Name", "Status"},
			Timeout:          DefaultReportTimeout,
		})
	}
	require.NoError(t, s.PutInventoryReport(context.Background(), report))
	require.Len(t, r.calls, 1)

	script := r.calls[0].script
	assert.Contains(t, script, "$req = [Console]::In.ReadToEnd() | ConvertFrom-Json")
	assert.NotContains(t, script, "SOME_LONG_CLASS_NAME")

	var sent InventoryReport
	require.NoError(t, json.Unmarshal([]byte(r.calls[0].stdin), &sent))
	assert.Equal(t, *report, sent)
}

func TestRenderScript_QuotesNamespace(t *testing.T) {
	tests := []struct {
		name      string
		namespace string
		want      string
	}{
		{name: "plain", namespace: `root\sms\site_PS1`, want: `$ns = 'root\sms\site_PS1'`},
		{name: "embedded quote", namespace: `root\sms\site_P'S1`, want: `$ns = 'root\sms\site_P''S1'`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script, err := renderScript("FindInventoryClass", tt.namespace)
			require.NoError(t, err)
			assert.Contains(t, script, tt.want+"\n")
		})
	}
}

func TestRenderScript_ClassNames(t *testing.T) {
	script, err := renderScript("GetInventoryReport", `root\sms\site_PS1`)
	require.NoError(t, err)
	assert.Contains(t, script, "-ClassName "+InventoryReportName+" ")

	script, err = renderScript("PutInventoryClass", `root\sms\site_PS1`)
	require.NoError(t, err)
	assert.Contains(t, script, "-ClassName "+InventoryClassName+" ")
	assert.Contains(t, script, "-ClassName "+InventoryClassPropertyName+" -ClientOnly")

	_, err = renderScript("Nope", `root\sms\site_PS1`)
	assert.Error(t, err)
}
