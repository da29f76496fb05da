package monitoring

import (
	"net/http"
	"net/http/httptest"
	"reflect"

	"github.com/gorilla/mux"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zoudehupowersystem/HECS-CPS-Sim/cps"
)

type sampleStruct struct {
	field1 int
	field2 string
	field3 *sampleStruct
	field4 []sampleStruct
}

type sampleSystem struct {
	Name string
}

var _ = Describe("Monitor", func() {
	var (
		m *Monitor
	)

	BeforeEach(func() {
		m = NewMonitor()
	})

	It("should register systems in order", func() {
		m.RegisterSystem("protection", &sampleSystem{Name: "protection"})
		m.RegisterSystem("frequency", &sampleSystem{Name: "frequency"})

		Expect(m.systemNames).To(Equal([]string{"protection", "frequency"}))
		Expect(m.systems).To(HaveLen(2))
	})

	It("should refuse duplicate system names", func() {
		m.RegisterSystem("protection", &sampleSystem{})

		Expect(func() {
			m.RegisterSystem("protection", &sampleSystem{})
		}).To(Panic())
	})

	It("should report the simulated time", func() {
		s := cps.NewScheduler()
		s.SetTime(1234)
		m.RegisterScheduler(s)

		w := httptest.NewRecorder()
		m.now(w, httptest.NewRequest(http.MethodGet, "/api/now", nil))

		Expect(w.Body.String()).To(Equal(`{"now_ms":1234}`))
	})

	It("should list systems as JSON", func() {
		m.RegisterSystem("protection", &sampleSystem{})
		m.RegisterSystem("frequency", &sampleSystem{})

		w := httptest.NewRecorder()
		m.listSystems(w, httptest.NewRequest(http.MethodGet, "/api/systems", nil))

		Expect(w.Body.String()).To(Equal(`["protection","frequency"]`))
	})

	It("should return 404 for unknown systems", func() {
		r := mux.NewRouter()
		r.HandleFunc("/api/system/{name}", m.systemDetails)

		w := httptest.NewRecorder()
		r.ServeHTTP(w,
			httptest.NewRequest(http.MethodGet, "/api/system/nope", nil))

		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("should track progress bars", func() {
		bar := m.CreateProgressBar("simulation", 70000)
		bar.IncrementInProgress(10)
		bar.MoveInProgressToFinished(10)

		Expect(bar.Finished).To(Equal(uint64(10)))
		Expect(bar.InProgress).To(Equal(uint64(0)))
		Expect(m.progressBars).To(HaveLen(1))

		m.CompleteProgressBar(bar)
		Expect(m.progressBars).To(BeEmpty())
	})

	It("should walk int fields", func() {
		s := &sampleStruct{
			field1: 1,
		}

		elem, err := m.walkFields(s, "field1")

		Expect(err).To(BeNil())
		Expect(elem.Kind()).To(Equal(reflect.Int))
		Expect(elem.Int()).To(Equal(int64(1)))
	})

	It("should walk string fields", func() {
		s := &sampleStruct{
			field2: "abc",
		}

		elem, err := m.walkFields(s, "field2")

		Expect(err).To(BeNil())
		Expect(elem.Kind()).To(Equal(reflect.String))
		Expect(elem.String()).To(Equal("abc"))
	})

	It("should walk recursively", func() {
		s := &sampleStruct{
			field3: &sampleStruct{
				field1: 1,
			},
		}

		elem, err := m.walkFields(s, "field3.field1")

		Expect(err).To(BeNil())
		Expect(elem.Kind()).To(Equal(reflect.Int))
		Expect(elem.Int()).To(Equal(int64(1)))
	})

	It("should walk slice recursively", func() {
		s := &sampleStruct{
			field4: []sampleStruct{{
				field4: []sampleStruct{
					{field1: 1},
				},
			}, {}},
		}

		elem, err := m.walkFields(s, "field4.0.field4.0.field1")

		Expect(err).To(BeNil())
		Expect(elem.Kind()).To(Equal(reflect.Int))
		Expect(elem.Int()).To(Equal(int64(1)))
	})
})
