package main

import (
	"strings"
	"testing"
)

func TestReadRows(t *testing.T) {
	in := strings.NewReader(`{"cpf":"529.982.247-25","matricula":"M1","orgao":"SEDUC"}

{"cpf":"11144477735","ref_month":3,"ref_year":2026}
`)
	rows, err := readRows(in)
	if err != nil {
		t.Fatalf("readRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows: want=2 got=%d", len(rows))
	}
	if rows[0].Matricula != "M1" || rows[1].RefMonth != 3 {
		t.Fatalf("rows decoded wrong: %+v", rows)
	}
}

func TestReadRowsReportsLine(t *testing.T) {
	_, err := readRows(strings.NewReader("{\"cpf\":\"1\"}\nnot json\n"))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("readRows: want line 2 error got=%v", err)
	}
}
