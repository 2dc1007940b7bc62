package catalog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Canonical file names inside a dataset directory. cmd/ingest produces these
// and LoadCSV consumes them.
const (
	PatientsFile     = "patients.csv"
	HospitalsFile    = "hospitals.csv"
	DoctorsFile      = "doctors.csv"
	AppointmentsFile = "appointments.csv"
)

// LoadCSV reads the four reference collections from dir. Every file must be
// present and carry a header row.
func LoadCSV(dir string) (*Catalog, error) {
	patients, err := loadPatients(filepath.Join(dir, PatientsFile))
	if err != nil {
		return nil, err
	}

	hospitals, err := loadHospitals(filepath.Join(dir, HospitalsFile))
	if err != nil {
		return nil, err
	}

	doctors, err := loadDoctors(filepath.Join(dir, DoctorsFile))
	if err != nil {
		return nil, err
	}

	appointments, err := loadAppointments(filepath.Join(dir, AppointmentsFile))
	if err != nil {
		return nil, err
	}

	return New(patients, hospitals, doctors, appointments), nil
}

func readRows(path string, wantFields int) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = wantFields

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s is empty", path)
	}

	// Skip the header row.
	return rows[1:], nil
}

func loadPatients(path string) ([]Patient, error) {
	rows, err := readRows(path, 4)
	if err != nil {
		return nil, err
	}

	patients := make([]Patient, 0, len(rows))
	for i, row := range rows {
		id, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: invalid patient_id %q", path, i+2, row[0])
		}
		age, err := strconv.Atoi(row[2])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: invalid age %q", path, i+2, row[2])
		}
		bmi, err := strconv.ParseFloat(row[3], 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: invalid bmi %q", path, i+2, row[3])
		}

		patients = append(patients, Patient{ID: id, Name: row[1], Age: age, BMI: bmi})
	}

	return patients, nil
}

func loadHospitals(path string) ([]Hospital, error) {
	rows, err := readRows(path, 7)
	if err != nil {
		return nil, err
	}

	hospitals := make([]Hospital, 0, len(rows))
	for i, row := range rows {
		id, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: invalid hospital_id %q", path, i+2, row[0])
		}
		beds, err := strconv.Atoi(row[4])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: invalid beds_available %q", path, i+2, row[4])
		}
		if beds < 0 {
			return nil, fmt.Errorf("%s row %d: beds_available must be non-negative, got %d", path, i+2, beds)
		}
		lat, err := strconv.ParseFloat(row[5], 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: invalid latitude %q", path, i+2, row[5])
		}
		lon, err := strconv.ParseFloat(row[6], 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: invalid longitude %q", path, i+2, row[6])
		}

		hospitals = append(hospitals, Hospital{
			ID:            id,
			Name:          row[1],
			Location:      row[2],
			Specialty:     row[3],
			BedsAvailable: beds,
			Latitude:      lat,
			Longitude:     lon,
		})
	}

	return hospitals, nil
}

func loadDoctors(path string) ([]Doctor, error) {
	rows, err := readRows(path, 4)
	if err != nil {
		return nil, err
	}

	doctors := make([]Doctor, 0, len(rows))
	for i, row := range rows {
		id, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: invalid doctor_id %q", path, i+2, row[0])
		}

		// hospital_id may be blank when the affiliation is unknown.
		hospitalID := 0
		if row[3] != "" {
			hospitalID, err = strconv.Atoi(row[3])
			if err != nil {
				return nil, fmt.Errorf("%s row %d: invalid hospital_id %q", path, i+2, row[3])
			}
		}

		doctors = append(doctors, Doctor{ID: id, Name: row[1], Specialization: row[2], HospitalID: hospitalID})
	}

	return doctors, nil
}

func loadAppointments(path string) ([]Appointment, error) {
	rows, err := readRows(path, 4)
	if err != nil {
		return nil, err
	}

	appointments := make([]Appointment, 0, len(rows))
	for i, row := range rows {
		id, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: invalid appointment_id %q", path, i+2, row[0])
		}
		patientID, err := strconv.Atoi(row[1])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: invalid patient_id %q", path, i+2, row[1])
		}
		doctorID, err := strconv.Atoi(row[2])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: invalid doctor_id %q", path, i+2, row[2])
		}

		appointments = append(appointments, Appointment{ID: id, PatientID: patientID, DoctorID: doctorID, Diagnosis: row[3]})
	}

	return appointments, nil
}
