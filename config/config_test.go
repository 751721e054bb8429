package config

import (
	"testing"

	"github.com/cardsweep/cardsweep/filesystem"
	"github.com/cardsweep/cardsweep/key"
	"github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestSetup(t *testing.T) {
	convey.Convey("Config Setup", t, func() {
		convey.Convey("Should initialize without error", func() {
			err := Setup()
			convey.So(err, convey.ShouldBeNil)
		})

		convey.Convey("Should have default values populated", func() {
			_ = Setup()
			for name := range Default {
				convey.So(viper.Get(name), convey.ShouldNotBeNil)
			}
			convey.So(viper.GetInt(key.RetryMaxAttempts), convey.ShouldEqual, 3)
			convey.So(viper.GetBool(key.OutputLiveSave), convey.ShouldBeTrue)
			convey.So(viper.GetStringSlice(key.SiteCardSelectors), convey.ShouldResemble, []string{"a[href*='/cards/info/']"})
		})

		convey.Convey("Should register every defined key", func() {
			convey.So(len(Default), convey.ShouldEqual, key.DefinedFieldsCount)
		})

		convey.Convey("EnvKeyReplacer should convert dots to underscores", func() {
			result := EnvKeyReplacer.Replace("wait.page_timeout_ms")
			convey.So(result, convey.ShouldEqual, "wait_page_timeout_ms")
		})
	})
}

func TestField(t *testing.T) {
	convey.Convey("Given a registered field", t, func() {
		field := Default[key.WaitItemTimeout]

		convey.Convey("Env should be prefixed with the application name", func() {
			convey.So(field.Env(), convey.ShouldEqual, "CARDSWEEP_WAIT_ITEM_TIMEOUT_MS")
		})

		convey.Convey("typeName should report the default's type", func() {
			convey.So(field.typeName(), convey.ShouldEqual, "int")
			boundary := Default[key.ExtractBoundarySelectors]
			convey.So(boundary.typeName(), convey.ShouldEqual, "[]string")
		})
	})
}

func TestValidate(t *testing.T) {
	convey.Convey("Given the default configuration", t, func() {
		convey.So(Setup(), convey.ShouldBeNil)

		convey.Convey("Validate accepts it", func() {
			convey.So(Validate(), convey.ShouldBeNil)
		})

		convey.Convey("An inverted page range is rejected", func() {
			viper.Set(key.ScrapeStartPage, 10)
			viper.Set(key.ScrapeEndPage, 2)
			defer func() {
				viper.Set(key.ScrapeStartPage, 1)
				viper.Set(key.ScrapeEndPage, 2311)
			}()

			err := Validate()
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "start_page")
		})

		convey.Convey("An item budget wider than the page budget is rejected", func() {
			viper.Set(key.WaitItemTimeout, 60000)
			defer viper.Set(key.WaitItemTimeout, 15000)

			convey.So(Validate(), convey.ShouldNotBeNil)
		})

		convey.Convey("An unknown engine is rejected", func() {
			viper.Set(key.BrowserEngine, "selenium")
			defer viper.Set(key.BrowserEngine, "rod")

			convey.So(Validate(), convey.ShouldNotBeNil)
		})
	})
}

func TestSections(t *testing.T) {
	convey.Convey("Every key belongs to a listed section", t, func() {
		for k := range Default {
			convey.So(IsSection(SectionOf(k)), convey.ShouldBeTrue)
		}
	})

	convey.Convey("Fields are filtered by section and sorted", t, func() {
		fields := Fields("retry")
		convey.So(fields, convey.ShouldHaveLength, 5)
		convey.So(fields[0].Key, convey.ShouldEqual, key.RetryDelay)
		for _, f := range fields {
			convey.So(SectionOf(f.Key), convey.ShouldEqual, "retry")
		}
		convey.So(Fields("nope"), convey.ShouldBeEmpty)
	})
}

func TestParse(t *testing.T) {
	convey.Convey("Values take the type of the default", t, func() {
		v, err := Parse(key.RetryMaxAttempts, []string{"5"})
		convey.So(err, convey.ShouldBeNil)
		convey.So(v, convey.ShouldEqual, 5)

		v, err = Parse(key.OutputLiveSave, []string{"false"})
		convey.So(err, convey.ShouldBeNil)
		convey.So(v, convey.ShouldEqual, false)

		v, err = Parse(key.BrowserBlockResources, []string{"images, fonts", "media"})
		convey.So(err, convey.ShouldBeNil)
		convey.So(v, convey.ShouldResemble, []string{"images", "fonts", "media"})
	})

	convey.Convey("Malformed and unknown values are rejected", t, func() {
		_, err := Parse(key.RetryMaxAttempts, []string{"three"})
		convey.So(err, convey.ShouldNotBeNil)

		_, err = Parse(key.ScrapePageDelay, []string{"-1"})
		convey.So(err, convey.ShouldNotBeNil)

		_, err = Parse(key.BrowserEngine, []string{"selenium"})
		convey.So(err.Error(), convey.ShouldContainSubstring, "rod, http")

		_, err = Parse(key.BrowserBlockResources, []string{"fonts,scripts"})
		convey.So(err, convey.ShouldNotBeNil)

		_, err = Parse("retry.nope", []string{"1"})
		convey.So(err, convey.ShouldNotBeNil)

		_, err = Parse(key.LogsLevel, nil)
		convey.So(err, convey.ShouldNotBeNil)
	})
}

func TestSet(t *testing.T) {
	convey.Convey("Given the default configuration", t, func() {
		convey.So(Setup(), convey.ShouldBeNil)

		convey.Convey("A valid value is applied", func() {
			defer Reset(key.RetryFailureCeiling)

			v, err := Set(key.RetryFailureCeiling, []string{"8"})
			convey.So(err, convey.ShouldBeNil)
			convey.So(v, convey.ShouldEqual, 8)
			convey.So(viper.GetInt(key.RetryFailureCeiling), convey.ShouldEqual, 8)
		})

		convey.Convey("A value that breaks validation is rolled back", func() {
			_, err := Set(key.WaitItemTimeout, []string{"45000"})
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(viper.GetInt(key.WaitItemTimeout), convey.ShouldEqual, 15000)
		})

		convey.Convey("Reset restores the default", func() {
			viper.Set(key.ScrapeEndPage, 40)
			Reset(key.ScrapeEndPage)
			convey.So(viper.GetInt(key.ScrapeEndPage), convey.ShouldEqual, 2311)
		})

		convey.Convey("Path points into the config directory", func() {
			convey.So(Path(), convey.ShouldEndWith, "cardsweep.toml")
		})
	})
}
