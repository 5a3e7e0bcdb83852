// Package java reads Maven and Gradle projects.
//
// Metadata comes from pom.xml, or from rootProject.name in
// settings.gradle(.kts) for Gradle builds without a POM. Components come
// from the first of:
//
//  1. gradle.lockfile (every locked coordinate; entries used only by test
//     configurations are development-only)
//  2. pom.xml <dependencies> (test scope is development-only)
//
// POM versions are resolved through <properties>, ${project.version} and
// <dependencyManagement>. Anything still unresolved, and version ranges,
// are reported as deps.UnknownVersion. Build scripts are never executed.
package java
