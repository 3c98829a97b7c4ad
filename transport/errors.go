package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jinzhu/gorm"
)

var (
	errEmptyQuery     = fmt.Errorf("query must not be empty")
	errUnknownEmotion = fmt.Errorf("unknown emotion")
)

func (h *Http) writeError(err error, w http.ResponseWriter) {
	switch err {
	case gorm.ErrRecordNotFound:
		w.WriteHeader(http.StatusNotFound)
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
	msg := &Response{
		Error: err.Error(),
	}
	var buf bytes.Buffer
	if err1 := json.NewEncoder(&buf).Encode(msg); err1 != nil {
		h.log.Error().Err(err1).Msg("failed to marshall error")
	}
	if _, err1 := w.Write(buf.Bytes()); err1 != nil {
		h.log.Error().Err(err1).Msg("writeError: failed to write")
	}
}
