package api

import (
	"bytes"
	"encoding/json"

	"github.com/kochabx/curvebox/core/crypto/curve"
	"github.com/kochabx/curvebox/core/crypto/ecies"
	"github.com/kochabx/curvebox/internal/history"
)

// CurveRef is either a preset name ("secp256k1") or a parameter object
// {"a","b","p","Gx","Gy","n"}. An empty ref selects the default curve.
type CurveRef struct {
	Name   string
	Params *curve.Params
}

func (r *CurveRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*r = CurveRef{}
		return nil
	}
	if data[0] == '"' {
		return json.Unmarshal(data, &r.Name)
	}
	p, err := curve.ParseParamsJSON(data)
	if err != nil {
		return err
	}
	*r = CurveRef{Params: &p}
	return nil
}

func (r CurveRef) MarshalJSON() ([]byte, error) {
	if r.Params != nil {
		return json.Marshal(r.Params)
	}
	return json.Marshal(r.Name)
}

// PointDTO carries decimal coordinates.
type PointDTO struct {
	X string `json:"x" validate:"required,bigint"`
	Y string `json:"y" validate:"required,bigint"`
}

type CurveInfo struct {
	Params   curve.Params `json:"params"`
	Singular bool         `json:"singular"`
}

type PointsRequest struct {
	A string `json:"a" validate:"required,bigint"`
	B string `json:"b" validate:"required,bigint"`
	P string `json:"p" validate:"required,bigint"`
}

type PointsResponse struct {
	Count  int           `json:"count"`
	Points []curve.Point `json:"points"`
}

type KeyRequest struct {
	Curve CurveRef `json:"curve"`
}

type DeriveRequest struct {
	Curve   CurveRef `json:"curve"`
	Private string   `json:"private" validate:"required"`
}

type KeyResponse struct {
	Curve   string      `json:"curve,omitempty"`
	Private string      `json:"private,omitempty"`
	Public  curve.Point `json:"public"`
	Compact string      `json:"compact"`
	Hex     string      `json:"hex"`
}

func keyResponse(pub *ecies.PublicKey) KeyResponse {
	return KeyResponse{
		Curve:   pub.Curve().Name(),
		Public:  pub.Point(),
		Compact: pub.Compact(),
		Hex:     pub.Hex(),
	}
}

// EncryptRequest names the recipient by point (To) or by directory user
// name (ToUser). With ToUser the curve comes from the directory entry.
type EncryptRequest struct {
	Curve   CurveRef  `json:"curve"`
	To      *PointDTO `json:"to"`
	ToUser  string    `json:"to_user"`
	Message string    `json:"message"`
}

type EncryptResponse struct {
	Envelope  string      `json:"envelope"`
	Ephemeral curve.Point `json:"ephemeral"`
	IV        []byte      `json:"iv"`
	Recipient string      `json:"recipient"`
}

type BatchRequest struct {
	Curve   CurveRef `json:"curve"`
	Users   []string `json:"users" validate:"required,min=1"`
	Message string   `json:"message"`
}

type BatchItem struct {
	User     string `json:"user"`
	Envelope string `json:"envelope,omitempty"`
	Error    string `json:"error,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

type DecryptRequest struct {
	Curve    CurveRef `json:"curve"`
	Private  string   `json:"private" validate:"required"`
	Envelope string   `json:"envelope" validate:"required"`
}

type DecryptResponse struct {
	Message string `json:"message"`
}

type PublishRequest struct {
	Curve CurveRef `json:"curve"`
	X     string   `json:"x" validate:"required,bigint"`
	Y     string   `json:"y" validate:"required,bigint"`
}

type CurveHistory struct {
	Records []history.CurveRecord `json:"records"`
}

type EncryptionHistory struct {
	Records []history.EncryptionRecord `json:"records"`
}
