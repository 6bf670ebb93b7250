// internal/models/enums.go
package models

type ServiceType string

const (
	ServiceConstruction      ServiceType = "CONSTRUCTION"
	ServiceRenovation        ServiceType = "RENOVATION"
	ServiceInteriorDesign    ServiceType = "INTERIOR_DESIGN"
	ServiceRepairs           ServiceType = "REPAIRS"
	ServiceSmartHome         ServiceType = "SMART_HOME"
	ServiceSolarInstallation ServiceType = "SOLAR_INSTALLATION"
	ServiceEVCharger         ServiceType = "EV_CHARGER"
)

var ServiceTypes = []ServiceType{
	ServiceConstruction,
	ServiceRenovation,
	ServiceInteriorDesign,
	ServiceRepairs,
	ServiceSmartHome,
	ServiceSolarInstallation,
	ServiceEVCharger,
}

func (s ServiceType) Valid() bool {
	for _, v := range ServiceTypes {
		if v == s {
			return true
		}
	}
	return false
}

type Province string

// Provinces served by the marketplace.
const (
	ProvinceBangkok           Province = "BANGKOK"
	ProvinceNonthaburi        Province = "NONTHABURI"
	ProvincePathumThani       Province = "PATHUM_THANI"
	ProvinceSamutPrakan       Province = "SAMUT_PRAKAN"
	ProvinceSamutSakhon       Province = "SAMUT_SAKHON"
	ProvinceNakhonPathom      Province = "NAKHON_PATHOM"
	ProvinceChonburi          Province = "CHONBURI"
	ProvinceRayong            Province = "RAYONG"
	ProvinceChachoengsao      Province = "CHACHOENGSAO"
	ProvincePrachinBuri       Province = "PRACHIN_BURI"
	ProvinceNakhonNayok       Province = "NAKHON_NAYOK"
	ProvinceSaKaeo            Province = "SA_KAEO"
	ProvinceAyutthaya         Province = "AYUTTHAYA"
	ProvinceLopburi           Province = "LOPBURI"
	ProvinceSaraburi          Province = "SARABURI"
	ProvinceSingBuri          Province = "SING_BURI"
	ProvinceAngThong          Province = "ANG_THONG"
	ProvinceSuphanBuri        Province = "SUPHAN_BURI"
	ProvinceKanchanaburi      Province = "KANCHANABURI"
	ProvinceRatchaburi        Province = "RATCHABURI"
	ProvinceSamutSongkhram    Province = "SAMUT_SONGKHRAM"
	ProvincePhetchaburi       Province = "PHETCHABURI"
	ProvincePrachuapKhiriKhan Province = "PRACHUAP_KHIRI_KHAN"
)

var Provinces = []Province{
	ProvinceBangkok,
	ProvinceNonthaburi,
	ProvincePathumThani,
	ProvinceSamutPrakan,
	ProvinceSamutSakhon,
	ProvinceNakhonPathom,
	ProvinceChonburi,
	ProvinceRayong,
	ProvinceChachoengsao,
	ProvincePrachinBuri,
	ProvinceNakhonNayok,
	ProvinceSaKaeo,
	ProvinceAyutthaya,
	ProvinceLopburi,
	ProvinceSaraburi,
	ProvinceSingBuri,
	ProvinceAngThong,
	ProvinceSuphanBuri,
	ProvinceKanchanaburi,
	ProvinceRatchaburi,
	ProvinceSamutSongkhram,
	ProvincePhetchaburi,
	ProvincePrachuapKhiriKhan,
}

func (p Province) Valid() bool {
	for _, v := range Provinces {
		if v == p {
			return true
		}
	}
	return false
}

type UrgencyLevel string

const (
	UrgencyLow    UrgencyLevel = "LOW"
	UrgencyMedium UrgencyLevel = "MEDIUM"
	UrgencyHigh   UrgencyLevel = "HIGH"
)

// Rank orders urgencies for queue sorting and thresholds; unknown values rank lowest.
func (u UrgencyLevel) Rank() int {
	switch u {
	case UrgencyHigh:
		return 3
	case UrgencyMedium:
		return 2
	case UrgencyLow:
		return 1
	default:
		return 0
	}
}

type LeadStatus string

const (
	LeadPending    LeadStatus = "PENDING"
	LeadAssigned   LeadStatus = "ASSIGNED"
	LeadQuoted     LeadStatus = "QUOTED"
	LeadApproved   LeadStatus = "APPROVED"
	LeadInProgress LeadStatus = "IN_PROGRESS"
	LeadCompleted  LeadStatus = "COMPLETED"
	LeadCancelled  LeadStatus = "CANCELLED"
)

type AssignmentResponse string

const (
	ResponseAccepted AssignmentResponse = "ACCEPTED"
	ResponseDeclined AssignmentResponse = "DECLINED"
	// ResponseNoResponse exists in the data model for expiry tooling; the engine never writes it.
	ResponseNoResponse AssignmentResponse = "NO_RESPONSE"
)

// Submittable reports whether a contractor may submit r.
func (r AssignmentResponse) Submittable() bool {
	return r == ResponseAccepted || r == ResponseDeclined
}

// JobStatus is shared by contractor jobs and their milestones.
type JobStatus string

const (
	JobPending    JobStatus = "PENDING"
	JobInProgress JobStatus = "IN_PROGRESS"
	JobReview     JobStatus = "REVIEW"
	JobCompleted  JobStatus = "COMPLETED"
	JobPaid       JobStatus = "PAID"
)

// ActiveJobStatuses count against a contractor's concurrent capacity.
var ActiveJobStatuses = []JobStatus{JobPending, JobInProgress}
