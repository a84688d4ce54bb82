// Package mapping provides the YAML schema, parser and static check for
// service mapping documents.
//
// A mapping document tells the mapper how to flatten a registration
// document into destination records. It is loaded once per service and is
// read-only afterwards.
//
// # Key capabilities
//
//   - Ordered sections: scalar field groups and array sections (grids)
//   - Primary and alternate source paths per field
//   - Static value mapping tables and named transforms
//   - Type discriminators for tagged upstream arrays
//   - Gated array sections (controlField / controlValue)
//   - Multi-destination storage through serviceConfig.destinationMap
//   - Pass-through fields and normalization groups
//
// # Schema Overview
//
//	service:
//	  id: farmers_registry
//	  formId: farmerRegistrationForm
//	  serviceConfig:
//	    parentFormId: farmerRegistrationForm
//	    destinationMap:
//	      farmerBasicInfo: farmerBasicInfo
//	      farmerLocation: farmerLocation
//	    gridMappings:
//	      householdMembers:
//	        formId: householdMemberForm
//	        parentField: farmer_id
//	    defaults:
//	      gridParentField: farmer_id
//	formMappings:
//	  farmerBasicInfo:
//	    fields:
//	      - joget: national_id
//	        govstack: identifiers.value
//	        govstackType: identifiers.type
//	        typeValue: NationalId
//	      - joget: first_name
//	        govstack: name.given[0]
//	      - joget: date_of_birth
//	        govstack: birthDate
//	        transform: date_ISO8601
//	  householdMembers:
//	    type: array
//	    govstack: relatedPerson
//	    jogetGrid: householdMembers
//	    fields:
//	      - joget: memberName
//	        govstack: name.text
//	  livestockDetails:
//	    type: array
//	    govstack: extension.agriculturalData.livestockDetails
//	    jogetGrid: livestockDetails
//	    controlField: extension.agriculturalData.hasLivestock
//	    controlValue: "yes"
//	    fields:
//	      - joget: animalType
//	        govstack: animalType
//	metadata:
//	  version: "2.0"
//	  masterDataFields: [district, agroEcologicalZone]
//	  fieldNormalization:
//	    yesNo: [hasLivestock, cropProduction]
//	    oneTwo: [canReadWrite]
//
// # Field keys
//
// `joget` names the destination field and `govstack` the primary source
// path. `jsonPath` is an alternate path tried when the primary yields
// nothing. `transformation` is accepted as an alias of `transform`, and
// `sectionToFormMap` as an alias of `destinationMap`.
//
// # Check
//
// Check reports problems Parse does not reject: inert fields, unknown
// transforms, malformed paths, incomplete array sections, grids whose
// destination cannot be resolved and, when a ColumnSource is supplied,
// destination columns that do not exist.
package mapping
