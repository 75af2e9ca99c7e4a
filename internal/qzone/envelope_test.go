package qzone

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestDecodeEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    interface{}
		wantErr bool
	}{
		{name: "number", body: "cb(123)", want: json.Number("123")},
		{name: "object", body: `cb({"a":1})`, want: map[string]interface{}{"a": json.Number("1")}},
		{name: "trailing semicolon", body: "_preloadCallback([1,2]);\n", want: []interface{}{json.Number("1"), json.Number("2")}},
		{name: "parens inside string", body: `cb({"s":"a) (b) c)"})`, want: map[string]interface{}{"s": "a) (b) c)"}},
		{name: "no parens", body: "no parens here", wantErr: true},
		{name: "no closing paren", body: "cb({}", wantErr: true},
		{name: "invalid payload", body: "cb({a:1})", wantErr: true},
		{name: "empty payload", body: "cb()", wantErr: true},
		{name: "two values", body: "cb(1 2)", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeEnvelope([]byte(tt.body))
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedEnvelope) {
					t.Fatalf("DecodeEnvelope() error = %v, want ErrMalformedEnvelope", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeEnvelope() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DecodeEnvelope() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestDecodeObject(t *testing.T) {
	obj, err := DecodeObject([]byte(`cb({"code":0,"msglist":[]})`))
	if err != nil {
		t.Fatalf("DecodeObject() error = %v", err)
	}
	if _, ok := obj["msglist"]; !ok {
		t.Errorf("DecodeObject() lost msglist: %v", obj)
	}

	_, err = DecodeObject([]byte(`cb({"code":-3000,"message":"please login"})`))
	var serr *ServiceError
	if !errors.As(err, &serr) {
		t.Fatalf("DecodeObject() error = %v, want *ServiceError", err)
	}
	if serr.Code != -3000 || serr.Message != "please login" {
		t.Errorf("ServiceError = %+v", serr)
	}

	if _, err := DecodeObject([]byte("cb([1])")); !errors.Is(err, ErrMalformedEnvelope) {
		t.Errorf("DecodeObject() on a list: error = %v, want ErrMalformedEnvelope", err)
	}
}
