package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/urfave/cli.v1"

	"github.com/thomasrohde/dscript/pkg/value"
)

// printJSON writes v in the snapshot encoding, indented when pretty is set.
func printJSON(ctx *cli.Context, v value.Value, pretty bool) error {
	data, err := value.Encode(v)
	if err != nil {
		return fail(ctx, err, pretty)
	}
	if pretty {
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err == nil {
			data = buf.Bytes()
		}
	}
	fmt.Fprintln(ctx.App.Writer, string(data))
	return nil
}

// printTable renders one row per binding in snapshot order.
func printTable(w io.Writer, snap value.Map) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Name", "Type", "Value"})
	table.SetAutoWrapText(false)
	for _, kv := range snap.Pairs() {
		table.Append([]string{kv.Key, value.TypeName(kv.Value), value.Format(kv.Value)})
	}
	table.Render()
}
