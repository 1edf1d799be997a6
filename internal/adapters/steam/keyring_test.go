package steam

import (
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestKeyring(t *testing.T) {
	Convey("Given a keyring with several keys", t, func() {
		k := NewKeyring([]string{"alpha", "beta", "gamma"})

		Convey("Then keys rotate left, wrapping around", func() {
			So(k.Next(), ShouldEqual, "alpha")
			So(k.Next(), ShouldEqual, "beta")
			So(k.Next(), ShouldEqual, "gamma")
			So(k.Next(), ShouldEqual, "alpha")
		})
	})

	Convey("Given keys with blanks and whitespace", t, func() {
		k := NewKeyring([]string{"  alpha ", "", "   ", "beta"})

		Convey("Then blanks are dropped and keys trimmed", func() {
			So(k.Len(), ShouldEqual, 2)
			So(k.Next(), ShouldEqual, "alpha")
			So(k.Next(), ShouldEqual, "beta")
		})
	})

	Convey("Given an empty keyring", t, func() {
		k := NewKeyring(nil)

		Convey("Then Next returns the empty string", func() {
			So(k.Next(), ShouldEqual, "")
			So(k.Len(), ShouldEqual, 0)
		})
	})

	Convey("Given concurrent callers", t, func() {
		k := NewKeyring([]string{"alpha", "beta"})

		const n = 100
		counts := make(chan string, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				counts <- k.Next()
			}()
		}
		wg.Wait()
		close(counts)

		Convey("Then usage splits evenly across keys", func() {
			seen := map[string]int{}
			for key := range counts {
				seen[key]++
			}
			So(seen["alpha"], ShouldEqual, n/2)
			So(seen["beta"], ShouldEqual, n/2)
		})
	})
}
