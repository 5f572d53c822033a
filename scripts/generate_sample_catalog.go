//go:build ignore

package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Writes a sample supplier catalogue in the free-text format the importer
// parses: a product name, an item number and an optional trailing size.
// Two lines are deliberately unparseable so the skip report has content.
func main() {
	path := "data/catalog/products.txt"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	lines := []string{
		"Premium Adult Dog Kibble 10234567 - 12 kg",
		"Senior Cat Diet Food 10234568 2 kg",
		"Dental Chew Treats 10234569 30 ct",
		"Rabies Vaccine 1yr 20345671 10 doses",
		"Distemper Parvo Combo Vaccine 20345672 25 doses",
		"Meloxicam Oral Suspension 30456781 - 32 ml",
		"Amoxicillin Tablets 250mg 30456782 100 tabs",
		"Ear Cleaning Solution 30456783 118 ml",
		"Nitrile Exam Glove Medium 40567891 100 ct",
		"Absorbable Suture 3-0 40567892 12 pk",
		"Sterile Gauze Sponge 4x4 40567893 200 ct",
		"Syringe Luer Lock 3 cc 40567894 100 ct",
		"Heartworm Antigen Test Kit 50678901 5 ct",
		"Urine Test Strip 50678902 100 ct",
		"Hospital Disinfectant Concentrate 60789012 1 l",
		"Antibacterial Hand Soap 60789013 500 ml",
		"Thermal Printer Label Roll 70890123 1000 ct",
		"Cone Collar Large 80901234",
		"",
		"DISCONTINUED ITEMS BELOW",
		"90012345",
	}

	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		log.Fatalf("Failed to write %s: %v", path, err)
	}

	fmt.Printf("Created %s (%d lines)\n", path, len(lines))
}
