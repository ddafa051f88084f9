package region_test

import (
	"errors"
	"testing"

	"github.com/inforum/diagnostico/internal/domain/region"
	. "github.com/smartystreets/goconvey/convey"
)

func TestResolve(t *testing.T) {
	Convey("Given a resolver over the default tables", t, func() {
		r, err := region.NewResolver(region.DefaultTables())
		So(err, ShouldBeNil)

		Convey("When the label is already a code", func() {
			So(r.Resolve("PA"), ShouldEqual, region.PA)
			So(r.Resolve("  sv "), ShouldEqual, region.SV)
		})

		Convey("When the label is a known alias", func() {
			So(r.Resolve("PANAMÁ"), ShouldEqual, r.Resolve("PA"))
			So(r.Resolve("PANAMA"), ShouldEqual, r.Resolve("PA"))
			So(r.Resolve("Panamá"), ShouldEqual, region.PA)
			So(r.Resolve("República Dominicana"), ShouldEqual, region.DO)
			So(r.Resolve("republica dominicana"), ShouldEqual, region.DO)
			So(r.Resolve("El Salvador"), ShouldEqual, region.SV)
			So(r.Resolve("ecuador"), ShouldEqual, region.EC)
		})

		Convey("When the label is empty or unknown", func() {
			for _, label := range []string{"", "   ", "México", "PANAMÀ", "XX"} {
				c, known := r.Lookup(label)
				So(c, ShouldEqual, region.GT)
				So(known, ShouldBeFalse)
			}
		})

		Convey("Then every input should map to a supported code", func() {
			for _, label := range []string{"", "GT", "honduras", "???", "ÑANDÚ", "gt\n"} {
				So(region.Supported(r.Resolve(label)), ShouldBeTrue)
			}
		})
	})
}

func TestRoute(t *testing.T) {
	Convey("Given the default tables", t, func() {
		r, _ := region.NewResolver(region.DefaultTables())

		Convey("Then each region should route to its pipeline and stage", func() {
			So(r.Route(region.GT), ShouldResemble, region.Target{PipelineID: 1, StageID: 6})
			So(r.Route(region.SV), ShouldResemble, region.Target{PipelineID: 2, StageID: 7})
			So(r.Route(region.HN), ShouldResemble, region.Target{PipelineID: 3, StageID: 13})
			So(r.Route(region.DO), ShouldResemble, region.Target{PipelineID: 4, StageID: 19})
			So(r.Route(region.EC), ShouldResemble, region.Target{PipelineID: 5, StageID: 25})
			So(r.Route(region.PA), ShouldResemble, region.Target{PipelineID: 6, StageID: 31})
		})

		Convey("And an unsupported code should route like the default", func() {
			So(r.Route("ZZ"), ShouldResemble, r.Route(region.GT))
		})
	})

	Convey("Given overridden tables", t, func() {
		tables := region.DefaultTables()
		tables.Default = region.PA
		tables.Pipelines[region.PA] = 60
		r, err := region.NewResolver(tables)
		So(err, ShouldBeNil)

		Convey("Then overrides should be honored", func() {
			So(r.Resolve("Nicaragua"), ShouldEqual, region.PA)
			So(r.Route(region.PA).PipelineID, ShouldEqual, 60)
		})

		Convey("And later mutation of the input should not leak in", func() {
			tables.Pipelines[region.PA] = 99
			So(r.Route(region.PA).PipelineID, ShouldEqual, 60)
		})
	})
}

func TestNewResolverValidation(t *testing.T) {
	Convey("Given invalid tables", t, func() {
		Convey("When the default region is unsupported", func() {
			tables := region.DefaultTables()
			tables.Default = "MX"
			_, err := region.NewResolver(tables)
			So(errors.Is(err, region.ErrUnsupported), ShouldBeTrue)
		})

		Convey("When a region lacks a stage", func() {
			tables := region.DefaultTables()
			delete(tables.Stages, region.EC)
			_, err := region.NewResolver(tables)
			So(errors.Is(err, region.ErrIncompleteTables), ShouldBeTrue)
		})

		Convey("When an alias points to an unsupported code", func() {
			tables := region.DefaultTables()
			tables.Aliases["MEXICO"] = "MX"
			_, err := region.NewResolver(tables)
			So(errors.Is(err, region.ErrUnsupported), ShouldBeTrue)
		})
	})
}

func TestFormatPhone(t *testing.T) {
	Convey("Given the default tables", t, func() {
		r, _ := region.NewResolver(region.DefaultTables())

		Convey("When the phone is local", func() {
			phone, ok := r.FormatPhone(region.GT, "5555-1234")
			So(phone, ShouldEqual, "+502 55551234")
			So(ok, ShouldBeTrue)
		})

		Convey("When the phone already carries the region prefix", func() {
			phone, ok := r.FormatPhone(region.EC, "+593 991234567")
			So(phone, ShouldEqual, "+593 991234567")
			So(ok, ShouldBeTrue)
		})

		Convey("When the local part is too short", func() {
			_, ok := r.FormatPhone(region.DO, "809555123")
			So(ok, ShouldBeFalse)
			_, ok = r.FormatPhone(region.GT, "+502 1234")
			So(ok, ShouldBeFalse)
		})

		Convey("When the phone is foreign or empty", func() {
			phone, ok := r.FormatPhone(region.GT, "+34 600000000")
			So(phone, ShouldEqual, "+34 600000000")
			So(ok, ShouldBeTrue)
			phone, ok = r.FormatPhone(region.GT, "  ")
			So(phone, ShouldEqual, "")
			So(ok, ShouldBeTrue)
		})

		Convey("Then phone rules should match the region", func() {
			So(r.PhoneRule(region.DO), ShouldResemble, region.PhoneRule{Prefix: "+1", MinDigits: 10})
		})
	})
}
