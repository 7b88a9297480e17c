// CapitolSync - Legislative Records and Campaign Finance Synchronization
// Copyright 2026 CapitolMetrics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/capitolmetrics/capitolsync

package validation

import (
	"strings"
	"testing"
)

type syncRequestFixture struct {
	Mode       string `validate:"omitempty,oneof=delta full"`
	Limit      int    `validate:"min=0,max=250"`
	BioguideID string `validate:"omitempty,alphanum,len=7"`
}

func TestValidateStructPasses(t *testing.T) {
	tests := []syncRequestFixture{
		{},
		{Mode: "delta"},
		{Mode: "full", Limit: 250},
		{BioguideID: "H000001"},
	}
	for _, req := range tests {
		if err := ValidateStruct(&req); err != nil {
			t.Errorf("ValidateStruct(%+v) = %v, want nil", req, err)
		}
	}
}

func TestValidateStructRejectsBadMode(t *testing.T) {
	err := ValidateStruct(&syncRequestFixture{Mode: "incremental"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(err.Errors()) != 1 {
		t.Fatalf("errors = %d, want 1", len(err.Errors()))
	}
	fe := err.Errors()[0]
	if fe.Field() != "Mode" || fe.Tag() != "oneof" {
		t.Errorf("field/tag = %s/%s, want Mode/oneof", fe.Field(), fe.Tag())
	}
	if !strings.Contains(err.Error(), "must be one of") {
		t.Errorf("message = %q, want oneof translation", err.Error())
	}
}

func TestValidateStructCollectsMultipleErrors(t *testing.T) {
	err := ValidateStruct(&syncRequestFixture{Mode: "bogus", Limit: 9999})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(err.Errors()) != 2 {
		t.Fatalf("errors = %d, want 2", len(err.Errors()))
	}

	details := err.Details()
	fields, ok := details["fields"].([]map[string]interface{})
	if !ok {
		t.Fatalf("details = %+v, want a fields list", details)
	}
	if len(fields) != 2 {
		t.Errorf("detail fields = %d, want 2", len(fields))
	}
}

func TestValidateStructSingleErrorDetails(t *testing.T) {
	err := ValidateStruct(&syncRequestFixture{Limit: -1})
	if err == nil {
		t.Fatal("expected validation error")
	}
	details := err.Details()
	if details["field"] != "Limit" || details["tag"] != "min" {
		t.Errorf("details = %+v, want field=Limit tag=min", details)
	}
}

func TestGetValidatorIsSingleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("GetValidator returned distinct instances")
	}
}
