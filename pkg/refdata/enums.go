package refdata

// Flat enumerations feeding dropdown fields. Returned slices are copies;
// callers may not mutate the underlying data.

var genders = []string{"Male", "Female", "Other"}

var religions = []string{
	"Hindu", "Muslim", "Christian", "Sikh", "Buddhist", "Jain", "Other",
}

var castes = []string{
	"Brahmin", "Kshatriya", "Maratha", "Vaishya", "Kayastha",
	"Lingayat", "Nair", "Reddy", "Other", "Prefer not to say",
}

var motherTongues = []string{
	"Hindi", "Marathi", "Konkani", "Kannada", "Gujarati", "Tamil",
	"Telugu", "Bengali", "Punjabi", "Malayalam", "English", "Other",
}

var maritalStatuses = []string{
	"Never Married", "Divorced", "Widowed", "Awaiting Divorce",
}

var educations = []string{
	"High School", "Diploma", "Bachelors", "Masters", "Doctorate", "Other",
}

var incomeBands = []string{
	"Below 2 LPA", "2-5 LPA", "5-10 LPA", "10-20 LPA", "Above 20 LPA",
	"Prefer not to say",
}

func Genders() []string         { return clone(genders) }
func Religions() []string       { return clone(religions) }
func Castes() []string          { return clone(castes) }
func MotherTongues() []string   { return clone(motherTongues) }
func MaritalStatuses() []string { return clone(maritalStatuses) }
func Educations() []string      { return clone(educations) }
func IncomeBands() []string     { return clone(incomeBands) }

func clone(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
