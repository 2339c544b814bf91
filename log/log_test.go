package log

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"

	"github.com/montage-cli/montage/filesystem"
	"github.com/montage-cli/montage/key"
	"github.com/montage-cli/montage/where"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestSetup(t *testing.T) {
	Convey("With writing disabled", t, func() {
		viper.Set(key.LogsWrite, false)

		So(Setup(), ShouldBeNil)
		So(enabled, ShouldBeFalse)
	})

	Convey("With writing enabled", t, func() {
		viper.Set(key.LogsWrite, true)
		viper.Set(key.LogsLevel, "debug")
		defer viper.Set(key.LogsWrite, false)

		So(Setup(), ShouldBeNil)
		So(enabled, ShouldBeTrue)

		Convey("The day's log file exists after an emission", func() {
			Info("started")

			name := fmt.Sprintf("%s.log", time.Now().Format("2006-01-02"))
			exists, err := filesystem.API().Exists(filepath.Join(where.Logs(), name))
			So(err, ShouldBeNil)
			So(exists, ShouldBeTrue)
		})

		Convey("An unparsable level does not fail setup", func() {
			viper.Set(key.LogsLevel, "chatty")
			So(Setup(), ShouldBeNil)
		})
	})
}
