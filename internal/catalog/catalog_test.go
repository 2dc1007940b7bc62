package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixture_Lookups(t *testing.T) {
	c := Fixture()

	require.Len(t, c.Patients(), 2)
	require.Len(t, c.Hospitals(), 3)
	require.Len(t, c.Doctors(), 3)
	require.Len(t, c.Appointments(), 4)

	h, ok := c.HospitalByID(101)
	require.True(t, ok)
	assert.Equal(t, "City Hospital", h.Name)
	assert.Equal(t, 50, h.BedsAvailable)

	_, ok = c.HospitalByID(999)
	assert.False(t, ok)

	d, ok := c.DoctorByID(201)
	require.True(t, ok)
	assert.Equal(t, "Gastroenterologist", d.Specialization)
	assert.Equal(t, 101, d.HospitalID)
}

func TestFixture_BedsByHospital(t *testing.T) {
	beds := Fixture().BedsByHospital()

	assert.Equal(t, map[string]int{
		"City Hospital":          50,
		"General Medical Center": 30,
		"Health Clinic":          10,
	}, beds)
}

func TestDocument_Rendering(t *testing.T) {
	c := Fixture()

	p, _ := c.PatientByID(1)
	assert.Equal(t, "Patient ID: 1, Name: John Doe, Age: 45, BMI: 27.5", p.Document())

	h, _ := c.HospitalByID(102)
	assert.Equal(t,
		"Hospital ID: 102, Name: General Medical Center, Location: Nagpur, India, Specialty: Gastroenterology, Beds Available: 30",
		h.Document())

	d := Doctor{ID: 204, Name: "Dr. Dana", Specialization: "Cardiologist"}
	assert.Equal(t, "Doctor ID: 204, Name: Dr. Dana, Specialization: Cardiologist, Hospital ID: Unknown", d.Document())
}

func TestLoadCSV(t *testing.T) {
	dir := t.TempDir()

	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}

	write(PatientsFile, "patient_id,name,age,bmi\n1,John Doe,45,27.5\n")
	write(HospitalsFile, "hospital_id,name,location,specialty,beds_available,latitude,longitude\n"+
		"101,City Hospital,\"Nagpur, India\",\"Gastroenterology, Cardiology\",50,21.1458,79.0882\n")
	write(DoctorsFile, "doctor_id,name,specialization,hospital_id\n201,Dr. Alice,Gastroenterologist,101\n202,Dr. Bob,Gastroenterologist,\n")
	write(AppointmentsFile, "appointment_id,patient_id,doctor_id,diagnosis\n301,1,201,Severe abdominal pain\n")

	c, err := LoadCSV(dir)
	require.NoError(t, err)

	require.Len(t, c.Hospitals(), 1)
	assert.Equal(t, "Gastroenterology, Cardiology", c.Hospitals()[0].Specialty)
	assert.InDelta(t, 21.1458, c.Hospitals()[0].Latitude, 1e-9)

	d, ok := c.DoctorByID(202)
	require.True(t, ok)
	assert.Zero(t, d.HospitalID)
}

func TestLoadCSV_RejectsNegativeBeds(t *testing.T) {
	dir := t.TempDir()

	files := map[string]string{
		PatientsFile:     "patient_id,name,age,bmi\n1,John Doe,45,27.5\n",
		HospitalsFile:    "hospital_id,name,location,specialty,beds_available,latitude,longitude\n101,City Hospital,Nagpur,General,-5,21.1458,79.0882\n",
		DoctorsFile:      "doctor_id,name,specialization,hospital_id\n201,Dr. Alice,Gastroenterologist,101\n",
		AppointmentsFile: "appointment_id,patient_id,doctor_id,diagnosis\n301,1,201,Fever\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}

	_, err := LoadCSV(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "beds_available")
}
