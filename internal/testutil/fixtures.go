package testutil

import "github.com/roach88/dtable/internal/ir"

// Row builds a row from its tag and cells.
func Row(kind ir.RowKind, cells ...string) ir.Row {
	return ir.Row{Kind: kind, Cells: cells}
}

// ShippingTable selects a carrier by order weight and records it on the
// order when performed:
//
//	heavy: order::weight > 10  -> carrier truck
//	light: order::weight < 11  -> carrier van
//	else                       -> carrier none
func ShippingTable() ir.TableDef {
	return ir.TableDef{
		Name: "shipping",
		Rows: []ir.Row{
			Row(ir.RowHeader, "Shipping", "heavy", "light"),
			Row(ir.RowCondition, "order::weight", ">10", "<11"),
			Row(ir.RowOutcome, "carrier", "truck", "van", "none"),
			Row(ir.RowAssignment, "order::carrier", "truck", "van"),
		},
	}
}

// GreetingTable picks a greeting from the request language.
func GreetingTable() ir.TableDef {
	return ir.TableDef{
		Name: "greeting",
		Rows: []ir.Row{
			Row(ir.RowHeader, "Greeting", "dutch", "english"),
			Row(ir.RowCondition, "request::lang", "nl", "en"),
			Row(ir.RowOutcome, "text", "hallo", "hello", "?"),
		},
	}
}

// LabelTable reads the shipping table's outcome through a coordinate.
func LabelTable() ir.TableDef {
	return ir.TableDef{
		Name: "label",
		Rows: []ir.Row{
			Row(ir.RowHeader, "Label", "by-truck"),
			Row(ir.RowCondition, "shipping::carrier", "truck"),
			Row(ir.RowOutcome, "sticker", "FREIGHT", "PARCEL"),
		},
	}
}

// ShipCommand marks the order shipped, then copies the status into the
// label field, so the second assignment sees the first.
func ShipCommand() ir.CommandDef {
	return ir.CommandDef{
		Name: "ship",
		Assignments: []ir.AssignmentDef{
			{Target: "order::status", Value: "shipped"},
			{Target: "order::label", Value: "order::status"},
		},
	}
}

// ShopBundle is the bundle of every fixture above.
func ShopBundle() ir.Bundle {
	return ir.Bundle{
		Tables:   []ir.TableDef{ShippingTable(), GreetingTable(), LabelTable()},
		Commands: []ir.CommandDef{ShipCommand()},
	}
}

// ShopState is a state with one order of the given weight.
func ShopState(weight string) map[string]map[string]string {
	return map[string]map[string]string{
		"order": {"weight": weight},
	}
}
