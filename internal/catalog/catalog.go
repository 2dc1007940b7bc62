// Package catalog holds the process-wide reference dataset. A Catalog is
// built once at startup and never mutated afterward, so it is safe for
// unsynchronized concurrent reads.
package catalog

import "fmt"

type Patient struct {
	ID   int
	Name string
	Age  int
	BMI  float64
}

type Hospital struct {
	ID            int
	Name          string
	Location      string
	Specialty     string // comma-separated specialty names
	BedsAvailable int
	Latitude      float64
	Longitude     float64
}

type Doctor struct {
	ID             int
	Name           string
	Specialization string
	HospitalID     int // 0 when unknown
}

type Appointment struct {
	ID        int
	PatientID int
	DoctorID  int
	Diagnosis string
}

type Catalog struct {
	patients     []Patient
	hospitals    []Hospital
	doctors      []Doctor
	appointments []Appointment

	patientByID  map[int]Patient
	hospitalByID map[int]Hospital
	doctorByID   map[int]Doctor
}

func New(patients []Patient, hospitals []Hospital, doctors []Doctor, appointments []Appointment) *Catalog {
	c := &Catalog{
		patients:     patients,
		hospitals:    hospitals,
		doctors:      doctors,
		appointments: appointments,
		patientByID:  make(map[int]Patient, len(patients)),
		hospitalByID: make(map[int]Hospital, len(hospitals)),
		doctorByID:   make(map[int]Doctor, len(doctors)),
	}

	for _, p := range patients {
		c.patientByID[p.ID] = p
	}
	for _, h := range hospitals {
		c.hospitalByID[h.ID] = h
	}
	for _, d := range doctors {
		c.doctorByID[d.ID] = d
	}

	return c
}

// Fixture returns the built-in sample dataset used when no CSV directory is
// configured.
func Fixture() *Catalog {
	return New(
		[]Patient{
			{ID: 1, Name: "John Doe", Age: 45, BMI: 27.5},
			{ID: 2, Name: "Jane Smith", Age: 30, BMI: 22.0},
		},
		[]Hospital{
			{ID: 101, Name: "City Hospital", Location: "Nagpur, India", Specialty: "Gastroenterology, Cardiology", BedsAvailable: 50, Latitude: 21.1458, Longitude: 79.0882},
			{ID: 102, Name: "General Medical Center", Location: "Nagpur, India", Specialty: "Gastroenterology", BedsAvailable: 30, Latitude: 21.1350, Longitude: 79.0750},
			{ID: 103, Name: "Health Clinic", Location: "Nagpur, India", Specialty: "General", BedsAvailable: 10, Latitude: 21.1500, Longitude: 79.0950},
		},
		[]Doctor{
			{ID: 201, Name: "Dr. Alice", Specialization: "Gastroenterologist", HospitalID: 101},
			{ID: 202, Name: "Dr. Bob", Specialization: "Gastroenterologist", HospitalID: 102},
			{ID: 203, Name: "Dr. Charlie", Specialization: "General Physician", HospitalID: 103},
		},
		[]Appointment{
			{ID: 301, PatientID: 1, DoctorID: 201, Diagnosis: "Severe abdominal pain"},
			{ID: 302, PatientID: 1, DoctorID: 202, Diagnosis: "Vomiting"},
			{ID: 303, PatientID: 2, DoctorID: 201, Diagnosis: "Abdominal pain"},
			{ID: 304, PatientID: 2, DoctorID: 203, Diagnosis: "Fever"},
		},
	)
}

func (c *Catalog) Patients() []Patient         { return c.patients }
func (c *Catalog) Hospitals() []Hospital       { return c.hospitals }
func (c *Catalog) Doctors() []Doctor           { return c.doctors }
func (c *Catalog) Appointments() []Appointment { return c.appointments }

func (c *Catalog) PatientByID(id int) (Patient, bool) {
	p, ok := c.patientByID[id]
	return p, ok
}

func (c *Catalog) HospitalByID(id int) (Hospital, bool) {
	h, ok := c.hospitalByID[id]
	return h, ok
}

func (c *Catalog) DoctorByID(id int) (Doctor, bool) {
	d, ok := c.doctorByID[id]
	return d, ok
}

// BedsByHospital aggregates available beds per hospital name.
func (c *Catalog) BedsByHospital() map[string]int {
	beds := make(map[string]int, len(c.hospitals))
	for _, h := range c.hospitals {
		beds[h.Name] += h.BedsAvailable
	}
	return beds
}

// Document renders the canonical text used when indexing a patient record.
func (p Patient) Document() string {
	return fmt.Sprintf("Patient ID: %d, Name: %s, Age: %d, BMI: %.1f", p.ID, p.Name, p.Age, p.BMI)
}

func (h Hospital) Document() string {
	return fmt.Sprintf("Hospital ID: %d, Name: %s, Location: %s, Specialty: %s, Beds Available: %d",
		h.ID, h.Name, h.Location, h.Specialty, h.BedsAvailable)
}

func (d Doctor) Document() string {
	hospital := "Unknown"
	if d.HospitalID != 0 {
		hospital = fmt.Sprintf("%d", d.HospitalID)
	}
	return fmt.Sprintf("Doctor ID: %d, Name: %s, Specialization: %s, Hospital ID: %s",
		d.ID, d.Name, d.Specialization, hospital)
}
