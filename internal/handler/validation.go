package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hitoshi/problemlist/internal/model"
)

// maxRequestBodySize はリクエストボディの上限（バイト）。
const maxRequestBodySize = 64 << 10

// requestValidator はリクエストボディの検証を行う。
// エラーメッセージにはJSONのフィールド名を使う。
type requestValidator struct {
	validate *validator.Validate
}

func newRequestValidator() *requestValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &requestValidator{validate: v}
}

// decode はJSONボディをdstに読み込み、validateタグで検証する。
// 未知のフィールドは無視する。失敗時はINVALID_REQUESTのAPIErrorを返す。
func (rv *requestValidator) decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		return model.NewInvalidRequestError("invalid JSON body")
	}

	if err := rv.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return model.NewInvalidRequestError(describeValidationErrors(verrs))
		}
		return model.NewInvalidRequestError(err.Error())
	}
	return nil
}

func describeValidationErrors(errs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", e.Field()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters long", e.Field(), e.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", e.Field()))
		}
	}
	return strings.Join(msgs, ", ")
}
