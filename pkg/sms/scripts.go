package sms

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig"
)

// Every script reads its request as JSON from stdin and, where it answers,
// writes a single compressed JSON document to stdout.
const scriptPrelude = `
$ErrorActionPreference = 'Stop'
$ns = {{ .Namespace | replace "'" "''" | squote }}
$req = [Console]::In.ReadToEnd() | ConvertFrom-Json
function Format-WqlString([string]$s) { $s.Replace('\', '\\').Replace("'", "\'") }
`

const putInventoryClassScript = scriptPrelude + `
$props = @(foreach ($p in $req.Properties) {
    New-CimInstance -Namespace $ns -ClassName {{ .PropertyClass }} -ClientOnly -Property @{
        PropertyName = [string]$p.PropertyName
        Type         = [uint32]$p.Type
        Width        = [uint32]$p.Width
        IsKey        = [bool]$p.IsKey
    }
})
$values = @{
    SMSClassID   = [string]$req.SMSClassID
    ClassName    = [string]$req.ClassName
    SMSGroupName = [string]$req.SMSGroupName
    Namespace    = [string]$req.Namespace
    IsDeletable  = [bool]$req.IsDeletable
    Properties   = [CimInstance[]]$props
}
$filter = "SMSClassID='{0}'" -f (Format-WqlString $req.SMSClassID)
$existing = Get-CimInstance -Namespace $ns -ClassName {{ .Class }} -Filter $filter | Select-Object -First 1
if ($null -ne $existing) {
    Set-CimInstance -InputObject $existing -Property $values | Out-Null
} else {
    New-CimInstance -Namespace $ns -ClassName {{ .Class }} -Property $values | Out-Null
}
`

const findInventoryClassScript = scriptPrelude + `
$filter = "SMSClassID='{0}'" -f (Format-WqlString $req.SMSClassID)
$c = Get-CimInstance -Namespace $ns -ClassName {{ .Class }} -Filter $filter | Select-Object -First 1
if ($null -eq $c) { exit 0 }
$c = $c | Get-CimInstance
[pscustomobject]@{
    SMSClassID   = $c.SMSClassID
    ClassName    = $c.ClassName
    SMSGroupName = $c.SMSGroupName
    Namespace    = $c.Namespace
    IsDeletable  = [bool]$c.IsDeletable
    Properties   = @($c.Properties | ForEach-Object {
        [pscustomobject]@{
            PropertyName = $_.PropertyName
            Type         = [int]$_.Type
            Width        = [int]$_.Width
            IsKey        = [bool]$_.IsKey
        }
    })
} | ConvertTo-Json -Depth 4 -Compress
`

const deleteInventoryClassScript = scriptPrelude + `
$filter = "SMSClassID='{0}'" -f (Format-WqlString $req.SMSClassID)
$c = Get-CimInstance -Namespace $ns -ClassName {{ .Class }} -Filter $filter | Select-Object -First 1
if ($null -eq $c) { throw "$($req.SMSClassID) does not exist" }
Remove-CimInstance -InputObject $c
`

const getInventoryReportScript = scriptPrelude + `
$filter = "InventoryReportID='{0}'" -f (Format-WqlString $req.InventoryReportID)
$r = Get-CimInstance -Namespace $ns -ClassName {{ .Class }} -Filter $filter | Select-Object -First 1
if ($null -eq $r) { throw "inventory report $($req.InventoryReportID) does not exist" }
$r = $r | Get-CimInstance
[pscustomobject]@{
    InventoryReportID = $r.InventoryReportID
    ReportClasses     = @($r.ReportClasses | ForEach-Object {
        [pscustomobject]@{
            SMSClassID       = $_.SMSClassID
            ReportProperties = @($_.ReportProperties)
            Timeout          = [int]$_.Timeout
        }
    })
} | ConvertTo-Json -Depth 4 -Compress
`

const putInventoryReportScript = scriptPrelude + `
$filter = "InventoryReportID='{0}'" -f (Format-WqlString $req.InventoryReportID)
$r = Get-CimInstance -Namespace $ns -ClassName {{ .Class }} -Filter $filter | Select-Object -First 1
if ($null -eq $r) { throw "inventory report $($req.InventoryReportID) does not exist" }
$r = $r | Get-CimInstance
$classes = @(foreach ($c in $req.ReportClasses) {
    New-CimInstance -Namespace $ns -ClassName {{ .ReportClassClass }} -ClientOnly -Property @{
        SMSClassID       = [string]$c.SMSClassID
        ReportProperties = [string[]]@($c.ReportProperties)
        Timeout          = [uint32]$c.Timeout
    }
})
$r.ReportClasses = [CimInstance[]]$classes
Set-CimInstance -InputObject $r | Out-Null
`

var scripts = map[string]*template.Template{
	"PutInventoryClass":    parseScript("PutInventoryClass", putInventoryClassScript),
	"FindInventoryClass":   parseScript("FindInventoryClass", findInventoryClassScript),
	"DeleteInventoryClass": parseScript("DeleteInventoryClass", deleteInventoryClassScript),
	"GetInventoryReport":   parseScript("GetInventoryReport", getInventoryReportScript),
	"PutInventoryReport":   parseScript("PutInventoryReport", putInventoryReportScript),
}

func parseScript(name, text string) *template.Template {
	return template.Must(template.New(name).Funcs(sprig.TxtFuncMap()).Parse(text))
}

type scriptData struct {
	Namespace        string
	Class            string
	PropertyClass    string
	ReportClassClass string
}

// renderScript fills in the provider namespace and remote class names of the named script.
func renderScript(op, namespace string) (string, error) {
	tmpl, ok := scripts[op]
	if !ok {
		return "", fmt.Errorf("no script for %s", op)
	}

	data := scriptData{
		Namespace:        namespace,
		PropertyClass:    InventoryClassPropertyName,
		ReportClassClass: InventoryReportClassName,
	}
	switch op {
	case "GetInventoryReport", "PutInventoryReport":
		data.Class = InventoryReportName
	default:
		data.Class = InventoryClassName
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s script: %w", op, err)
	}
	return buf.String(), nil
}
