package partners

import (
	"fmt"
	"strings"

	"github.com/speps/go-hashids/v2"
)

// RefCodeGenerator produces short opaque reference codes for partners
// so that sequential database IDs never leak into exports or invoices.
type RefCodeGenerator struct {
	h *hashids.HashID
}

func NewRefCodeGenerator(salt string) (*RefCodeGenerator, error) {
	hd := hashids.NewData()
	hd.Salt = salt
	hd.MinLength = 8
	hd.Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	h, err := hashids.NewWithData(hd)
	if err != nil {
		return nil, err
	}
	return &RefCodeGenerator{h: h}, nil
}

func (g *RefCodeGenerator) Generate(companyID, partnerID int64) (string, error) {
	code, err := g.h.EncodeInt64([]int64{companyID, partnerID})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("BP-%s", strings.ToUpper(code)), nil
}
