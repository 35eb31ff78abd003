package byod

// metricCoding maps a device metric type onto the LOINC code and UCUM unit
// used when converting rows to FHIR Observations.
type metricCoding struct {
	LoincCode string
	Display   string
	Unit      string
}

var metricCodings = map[string]metricCoding{
	"steps":          {LoincCode: "55423-8", Display: "Number of steps", Unit: "steps"},
	"heart_rate":     {LoincCode: "8867-4", Display: "Heart rate", Unit: "/min"},
	"weight":         {LoincCode: "29463-7", Display: "Body weight", Unit: "kg"},
	"blood_glucose":  {LoincCode: "2339-0", Display: "Glucose", Unit: "mg/dL"},
	"blood_pressure": {LoincCode: "85354-9", Display: "Blood pressure panel", Unit: "mm[Hg]"},
	"sleep_duration": {LoincCode: "93832-4", Display: "Sleep duration", Unit: "h"},
}

// KnownMetric reports whether rows of this type can be converted.
func KnownMetric(metricType string) bool {
	_, ok := metricCodings[metricType]
	return ok
}
