package schema

import "testing"

func TestOrdersCoverCatalogExactlyOnce(t *testing.T) {
	if err := coversCatalog(DeleteOrder); err != nil {
		t.Fatalf("delete order: %v", err)
	}
	if err := coversCatalog(InsertOrder); err != nil {
		t.Fatalf("insert order: %v", err)
	}
	if len(DeleteOrder) != len(Catalog()) || len(InsertOrder) != len(Catalog()) {
		t.Fatalf("orders must match catalog size %d, got delete=%d insert=%d",
			len(Catalog()), len(DeleteOrder), len(InsertOrder))
	}
}

func TestCheckOrders(t *testing.T) {
	if err := CheckOrders(); err != nil {
		t.Fatalf("orders inconsistent with catalog references: %v", err)
	}
}

func TestInsertOrderParentsFirst(t *testing.T) {
	pos := map[string]int{}
	for i, n := range InsertOrder {
		pos[n] = i
	}
	for _, tbl := range Catalog() {
		for _, ref := range tbl.References {
			if pos[ref.Parent] > pos[tbl.Name] {
				t.Fatalf("%s inserted at %d before its parent %s at %d",
					tbl.Name, pos[tbl.Name], ref.Parent, pos[ref.Parent])
			}
		}
	}
}

func TestDeleteOrderChildrenFirst(t *testing.T) {
	pos := map[string]int{}
	for i, n := range DeleteOrder {
		pos[n] = i
	}
	for _, tbl := range Catalog() {
		for _, ref := range tbl.References {
			if pos[tbl.Name] > pos[ref.Parent] {
				t.Fatalf("%s deleted at %d after its parent %s at %d",
					tbl.Name, pos[tbl.Name], ref.Parent, pos[ref.Parent])
			}
		}
	}
}

func TestCatalogPrimaryKeys(t *testing.T) {
	for _, tbl := range Catalog() {
		if len(tbl.PKColumns) == 0 {
			t.Fatalf("table %s has no primary key columns", tbl.Name)
		}
	}
}

func TestCatalogReferencesResolve(t *testing.T) {
	byName := ByName()
	for _, tbl := range Catalog() {
		for _, ref := range tbl.References {
			if _, ok := byName[ref.Parent]; !ok {
				t.Fatalf("table %s references unknown parent %s", tbl.Name, ref.Parent)
			}
		}
	}
}
