package output

import (
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSchema(t *testing.T) {
	Convey("Given the document schema", t, func() {
		data, err := json.Marshal(Schema())
		So(err, ShouldBeNil)
		s := string(data)

		Convey("Card fields use their output names", func() {
			So(s, ShouldContainSubstring, `"card_id"`)
			So(s, ShouldContainSubstring, `"session_statistics"`)
			So(s, ShouldContainSubstring, `"wait_time_analytics"`)
		})

		Convey("Optional strings accept null", func() {
			So(s, ShouldContainSubstring, `"high_res_image_url":{"oneOf":[{"type":"string"},{"type":"null"}]`)
		})
	})
}
