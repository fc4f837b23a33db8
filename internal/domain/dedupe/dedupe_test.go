package dedupe_test

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"

	dedupe "github.com/okian/nbai/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new InMemoryDeduper", t, func() {
		ctx := context.Background()

		Convey("When creating a deduper with default options", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("Then it should start empty", func() {
				So(d, ShouldNotBeNil)
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When recording keys", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithExpectedSize(8))

			Convey("And the key is new", func() {
				seen := d.SeenAndRecord(ctx, "row-1")

				Convey("Then it should return false and record the key", func() {
					So(seen, ShouldBeFalse)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And the key was already seen", func() {
				d.SeenAndRecord(ctx, "row-1")
				seen := d.SeenAndRecord(ctx, "row-1")

				Convey("Then it should return true without growing", func() {
					So(seen, ShouldBeTrue)
					So(d.Size(), ShouldEqual, 1)
				})
			})
		})
	})

	Convey("Given a deduper with concurrent access", t, func() {
		d := dedupe.NewInMemoryDeduper()
		ctx := context.Background()

		Convey("When multiple goroutines record overlapping keys", func() {
			var wg sync.WaitGroup
			for g := 0; g < 8; g++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := 0; i < 100; i++ {
						d.SeenAndRecord(ctx, fmt.Sprintf("row-%d", i))
					}
				}()
			}
			wg.Wait()

			Convey("Then every distinct key is counted once", func() {
				So(d.Size(), ShouldEqual, 100)
			})
		})
	})
}

func TestFingerprint(t *testing.T) {
	Convey("Given row values", t, func() {
		Convey("When values differ only in where a field ends", func() {
			a := dedupe.Fingerprint("ab", "c")
			b := dedupe.Fingerprint("a", "bc")

			Convey("Then the fingerprints differ", func() {
				So(a, ShouldNotEqual, b)
			})
		})

		Convey("When formatting missing numbers", func() {
			Convey("Then every NaN formats the same way", func() {
				So(dedupe.Float(math.NaN()), ShouldEqual, dedupe.Float(math.Copysign(math.NaN(), -1)))
				So(dedupe.Float(12.5), ShouldEqual, "12.5")
			})
		})
	})
}

func TestFilter(t *testing.T) {
	Convey("Given rows with exact duplicates", t, func() {
		rows := []string{"a", "b", "a", "c", "b", "a"}

		kept, dropped := dedupe.Filter(context.Background(), dedupe.NewInMemoryDeduper(), rows,
			func(s string) string { return s })

		Convey("Then first occurrences are kept in input order", func() {
			So(kept, ShouldResemble, []string{"a", "b", "c"})
			So(dropped, ShouldEqual, 3)
		})

		Convey("Then the input slice is left untouched", func() {
			So(rows, ShouldResemble, []string{"a", "b", "a", "c", "b", "a"})
		})
	})
}
